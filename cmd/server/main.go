// Command server wires every pipeline component together: trending
// ingest, wallet/whale discovery, wallet monitoring, confluence
// detection, the paper trader, watchlist maintenance, cloud backup,
// and the dashboard HTTP API, then runs them under one scheduler
// until a termination signal arrives.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/alphawallet/internal/adapters/price"
	"github.com/aristath/alphawallet/internal/adapters/trending"
	"github.com/aristath/alphawallet/internal/alerts"
	"github.com/aristath/alphawallet/internal/analytics"
	"github.com/aristath/alphawallet/internal/config"
	"github.com/aristath/alphawallet/internal/confluence"
	"github.com/aristath/alphawallet/internal/database"
	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/events"
	"github.com/aristath/alphawallet/internal/ingestion"
	"github.com/aristath/alphawallet/internal/monitor"
	"github.com/aristath/alphawallet/internal/papertrader"
	"github.com/aristath/alphawallet/internal/priceroute"
	"github.com/aristath/alphawallet/internal/reliability"
	"github.com/aristath/alphawallet/internal/scheduler"
	"github.com/aristath/alphawallet/internal/server"
	"github.com/aristath/alphawallet/internal/store"
	"github.com/aristath/alphawallet/internal/watchlist"
	"github.com/aristath/alphawallet/pkg/logger"
)

// alertForwarder adapts a plain func to domain.Alerter, the way
// http.HandlerFunc adapts a func to http.Handler.
type alertForwarder func(domain.Alert)

func (f alertForwarder) Emit(a domain.Alert) { f(a) }

// priceFailureResetJob zeroes the price router's per-source failure
// counters so a source skipped after reaching its cap is tried again.
type priceFailureResetJob struct{ router *priceroute.Router }

func (j priceFailureResetJob) Name() string { return "price_failure_reset" }

func (j priceFailureResetJob) Run(ctx context.Context) error {
	j.router.ResetFailureCounters()
	return nil
}

func main() {
	bootLog := logger.New(logger.Config{Level: "info", Pretty: true})

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Strs("chains", cfg.Chains).Msg("starting alpha-wallet discovery pipeline")

	memeFilter, err := config.LoadMemeFilter(cfg.MemeFilterPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load meme filter")
	}

	entitiesDB, err := database.New(cfg.EntitiesDBPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open entities database")
	}
	defer entitiesDB.Close()
	if err := entitiesDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate entities database")
	}
	conn := entitiesDB.Conn()

	tokens := store.NewTokenRepository(conn, log)
	seeds := store.NewSeedTokenRepository(conn, log)
	wallets := store.NewWalletRepository(conn, log)
	trades := store.NewTradeRepository(conn, log)
	positions := store.NewPositionRepository(conn, log)
	walletStats := store.NewWalletStatsRepository(conn, log)
	watchlistRepo := store.NewWatchlistRepository(conn, log)
	customWallets := store.NewCustomWalletRepository(conn, log)
	alertRepo := store.NewAlertRepository(conn, log)
	cursors := store.NewCursorRepository(conn, log)
	sourceHealth := store.NewSourceHealthRepository(conn, log)

	// Trending + price sources. DexScreener and Birdeye double as both;
	// CoinGecko is price-only.
	dexscreener := trending.NewDexScreener(cfg.DexScreenerAPIKey, log)
	birdeye := trending.NewBirdeye(cfg.BirdeyeAPIKey, log)
	coingecko := price.NewCoinGecko(cfg.CoinGeckoAPIKey, log)

	trendingSources := make(map[string][]domain.TrendingSource, len(cfg.Chains))
	for _, chainID := range cfg.Chains {
		trendingSources[chainID] = []domain.TrendingSource{dexscreener, birdeye}
	}
	priceSources := []domain.PriceSource{dexscreener, birdeye, coingecko}
	router := priceroute.New(priceSources, trades, sourceHealth, cfg.PriceCacheTTL, cfg.PriceSourceFailCap, log)

	// Chain adapters need a concrete on-chain transfer feed (EVM log
	// scanning, Solana RPC polling). That wire format is out of scope
	// here, so the registry stays keyed by chain ID and empty: every
	// consumer below already treats an unknown chain ID as a no-op, so
	// wallet discovery, whale discovery, and monitoring degrade to idle
	// rather than failing until a feed is registered per chain.
	chainAdapters := make(map[string]domain.ChainAdapter)
	if len(chainAdapters) == 0 {
		log.Warn().Msg("no chain adapters registered: on-chain discovery and monitoring are idle until a transfer feed is wired in per chain")
	}

	durable, err := papertrader.OpenDurableLog(cfg.PaperTraderDBPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open paper trader durable log")
	}
	trader, err := papertrader.New(cfg.StartingPaperBalanceUSD, cfg.MaxOpenPositions, memeFilter, router, tokens, seeds, durable, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to replay paper trader state")
	}

	detector := confluence.New(time.Duration(cfg.ConfluenceMinutes)*time.Minute, log)

	// The websocket forwarder closes over srv, assigned once below;
	// it is only ever invoked after the server has started.
	var srv *server.Server
	forwarder := alertForwarder(func(a domain.Alert) {
		if srv != nil {
			srv.BroadcastAlert(a)
		}
	})
	alertSink := alerts.NewPersistingSink(alertRepo, forwarder, log)
	eventManager := events.NewManager(log)
	trader.SetAlerter(alertSink)
	trader.SetEvents(eventManager)

	earlyScore := &analytics.EarlyScoreResolver{SeedTokens: seeds, Trades: trades}
	rollup := &analytics.Rollup{Trades: trades, Tokens: tokens, EarlyScore: earlyScore, Router: router, Log: log}

	mon := &monitor.Monitor{
		Watchlist:  watchlistRepo,
		Cursors:    cursors,
		Trades:     trades,
		Adapters:   chainAdapters,
		Detector:   detector,
		Filter:     memeFilter,
		Trader:     trader,
		Alerter:    alertSink,
		Health:     sourceHealth,
		MinWallets: cfg.ConfluenceMinWallets,
		FetchLimit: 200,
		Log:        log,
	}

	trendingIngestor := &ingestion.TrendingIngestor{
		Sources: trendingSources,
		Tokens:  tokens,
		Seeds:   seeds,
		Health:  sourceHealth,
		Events:  eventManager,
		TopN:    100,
		Log:     log,
	}
	walletDiscovery := &ingestion.WalletDiscovery{
		Adapters: chainAdapters,
		Seeds:    seeds,
		Wallets:  wallets,
		Trades:   trades,
		Health:   sourceHealth,
		Limit:    200,
		Log:      log,
	}
	whaleDiscovery := &ingestion.WhaleDiscovery{
		Adapters:        chainAdapters,
		Seeds:           seeds,
		Wallets:         wallets,
		Trades:          trades,
		Health:          sourceHealth,
		Limit:           500,
		MinVolume24hUSD: cfg.WhaleMinUSDValue,
		Log:             log,
	}

	maintainer := &watchlist.Maintainer{
		Stats:     walletStats,
		Wallets:   wallets,
		Watchlist: watchlistRepo,
		Alerts:    alertRepo,
		Events:    eventManager,
		Thresholds: watchlist.Thresholds{
			TopK:                  cfg.WatchlistTopK,
			AddMinTrades30d:       cfg.AddMinTrades30d,
			AddMinRealizedPnL:     cfg.AddMinRealizedPnL30dUSD,
			AddMinBestMultiple:    cfg.AddMinBestTradeMultiple,
			RemoveIfPnLLt:         cfg.RemoveIfRealizedPnLLt,
			RemoveIfDrawdownPctGt: cfg.RemoveIfMaxDrawdownPctGt,
			RemoveIfTradesLt:      cfg.RemoveIfTrades30dLt,
		},
		Weights: watchlist.DefaultWeights,
		Log:     log,
	}

	jobHealth := server.NewJobHealthTracker()
	sched := scheduler.New(log)
	sched.SetReporter(jobHealth)

	mustAddJob(sched, "0 */5 * * * *", &scheduler.TrendingSeedJob{Ingestor: trendingIngestor, Chains: cfg.Chains}, time.Minute)
	mustAddJob(sched, "0 */10 * * * *", &scheduler.WalletDiscoveryJob{Discovery: walletDiscovery}, 2*time.Minute)
	mustAddJob(sched, "0 */15 * * * *", &scheduler.WhaleDiscoveryJob{Discovery: whaleDiscovery}, 2*time.Minute)
	mustAddJob(sched, "0 */2 * * * *", &scheduler.WalletMonitoringJob{Monitor: mon}, time.Minute)
	mustAddJob(sched, "0 0 * * * *", &scheduler.StatsRollupJob{
		Wallets: wallets, Trades: trades, Positions: positions, Stats: walletStats,
		Rollup: rollup, Lookback: time.Duration(cfg.WalletBackfillDays) * 24 * time.Hour, Log: log,
	}, 10*time.Minute)
	mustAddJob(sched, "*/30 * * * * *", &scheduler.PositionManagementJob{
		Trader: trader, Router: router, Detector: detector, MinWhale: cfg.ConfluenceMinWallets,
	}, 30*time.Second)
	mustAddJob(sched, "0 0 2 * * *", &scheduler.WatchlistMaintenanceJob{Maintainer: maintainer}, 5*time.Minute)
	mustAddJob(sched, "@every "+cfg.PriceFailResetPeriod.String(), priceFailureResetJob{router: router}, time.Minute)

	if cfg.BackupEnabled {
		backupCtx, cancelBackup := context.WithCancel(context.Background())
		defer cancelBackup()
		backupSvc, err := reliability.NewBackupService(backupCtx, cfg.BackupEndpoint, cfg.BackupRegion,
			cfg.BackupAccessKeyID, cfg.BackupSecretAccessKey, cfg.BackupBucket,
			[]reliability.BackupTarget{
				{Name: "entities", Path: cfg.EntitiesDBPath()},
				{Name: "papertrader", Path: cfg.PaperTraderDBPath()},
			}, log)
		if err != nil {
			log.Error().Err(err).Msg("backup service unavailable, continuing without it")
		} else {
			hours := cfg.BackupIntervalHours
			if hours <= 0 {
				hours = 6
			}
			mustAddJob(sched, fmt.Sprintf("0 0 */%d * * *", hours), &reliability.BackupJob{Service: backupSvc}, 5*time.Minute)
		}
	}

	sched.Start()
	defer sched.Stop()

	srv = server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Tokens:    tokens,
		Seeds:     seeds,
		Wallets:   wallets,
		Trades:    trades,
		Positions: positions,
		Stats:     walletStats,
		Watchlist: watchlistRepo,
		Custom:    customWallets,
		Alerts:    alertRepo,
		Health:    sourceHealth,
		Trader:    trader,
		Router:    router,
		Detector:  detector,
		StartedAt: time.Now().UTC(),
		JobHealth: jobHealth,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := durable.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close paper trader durable log")
	}
	log.Info().Msg("stopped")
}

func mustAddJob(sched *scheduler.Scheduler, schedule string, job scheduler.Job, timeout time.Duration) {
	if err := sched.AddJob(schedule, job, timeout); err != nil {
		panic(fmt.Errorf("register job %s: %w", job.Name(), err))
	}
}
