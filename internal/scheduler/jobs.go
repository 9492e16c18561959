package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/analytics"
	"github.com/aristath/alphawallet/internal/confluence"
	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/ingestion"
	"github.com/aristath/alphawallet/internal/monitor"
	"github.com/aristath/alphawallet/internal/papertrader"
	"github.com/aristath/alphawallet/internal/priceroute"
	"github.com/aristath/alphawallet/internal/store"
	"github.com/aristath/alphawallet/internal/watchlist"
)

// Each job type below is a thin adapter satisfying scheduler.Job by
// delegating to the package that owns the actual logic. Keeping them
// here (rather than inside each package) keeps cron wiring in one
// place and every package's own API ctx-free and directly testable.

// TrendingSeedJob wraps ingestion.TrendingIngestor as runner_seed.
type TrendingSeedJob struct {
	Ingestor *ingestion.TrendingIngestor
	Chains   []string
}

func (j *TrendingSeedJob) Name() string { return "runner_seed" }
func (j *TrendingSeedJob) Run(ctx context.Context) error {
	return j.Ingestor.Run(j.Chains, time.Now().UTC())
}

// WalletDiscoveryJob wraps ingestion.WalletDiscovery.
type WalletDiscoveryJob struct {
	Discovery *ingestion.WalletDiscovery
}

func (j *WalletDiscoveryJob) Name() string { return "wallet_discovery" }
func (j *WalletDiscoveryJob) Run(ctx context.Context) error {
	return j.Discovery.Run(time.Now().UTC())
}

// WhaleDiscoveryJob wraps ingestion.WhaleDiscovery.
type WhaleDiscoveryJob struct {
	Discovery *ingestion.WhaleDiscovery
}

func (j *WhaleDiscoveryJob) Name() string { return "whale_discovery" }
func (j *WhaleDiscoveryJob) Run(ctx context.Context) error {
	return j.Discovery.Run(time.Now().UTC())
}

// WalletMonitoringJob wraps monitor.Monitor.
type WalletMonitoringJob struct {
	Monitor *monitor.Monitor
}

func (j *WalletMonitoringJob) Name() string { return "wallet_monitoring" }
func (j *WalletMonitoringJob) Run(ctx context.Context) error {
	return j.Monitor.Run(time.Now().UTC())
}

// StatsRollupJob applies the bot filter to every non-bot, recently
// active wallet's trades, then recomputes Position + WalletStats30D for
// each wallet that still passes it.
type StatsRollupJob struct {
	Wallets   *store.WalletRepository
	Trades    *store.TradeRepository
	Positions *store.PositionRepository
	Stats     *store.WalletStatsRepository
	Rollup    *analytics.Rollup
	Lookback  time.Duration
	Log       zerolog.Logger
}

func (j *StatsRollupJob) Name() string { return "stats_rollup" }
func (j *StatsRollupJob) Run(ctx context.Context) error {
	now := time.Now().UTC()
	wallets, err := j.Wallets.NonBotActiveSince(now.Add(-j.Lookback))
	if err != nil {
		return err
	}

	for _, w := range wallets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		trades, err := j.Trades.ForWallet(w.Address, now.Add(-analytics.Rollup30DWindow))
		if err != nil {
			j.Log.Warn().Err(err).Str("wallet", w.Address).Msg("stats rollup trade fetch failed")
			continue
		}
		if analytics.IsBot(trades, w.IsContract) {
			if err := j.Wallets.MarkBot(w.ChainID, w.Address); err != nil {
				j.Log.Warn().Err(err).Str("wallet", w.Address).Msg("mark bot failed")
			}
			continue
		}

		positions, stats, err := j.Rollup.Compute(w.Address, w.ChainID, now)
		if err != nil {
			j.Log.Warn().Err(err).Str("wallet", w.Address).Msg("rollup compute failed")
			continue
		}
		for _, p := range positions {
			if err := j.Positions.Save(p); err != nil {
				j.Log.Warn().Err(err).Str("wallet", w.Address).Str("token", p.Token).Msg("position save failed")
			}
		}
		if err := j.Stats.Save(stats); err != nil {
			j.Log.Warn().Err(err).Str("wallet", w.Address).Msg("wallet stats save failed")
		}
	}
	return nil
}

// PositionManagementJob marks every open paper position and applies
// the exit policy, resolving prices via the router and sell-side
// confluence via the detector.
type PositionManagementJob struct {
	Trader   *papertrader.Trader
	Router   *priceroute.Router
	Detector *confluence.Detector
	MinWhale int
}

func (j *PositionManagementJob) Name() string { return "position_management" }
func (j *PositionManagementJob) Run(ctx context.Context) error {
	now := time.Now().UTC()
	prices := make(map[string]float64)
	sellConfluence := make(map[string]bool)

	for _, pos := range j.Trader.OpenPositions() {
		prices[pos.Token] = j.Router.PriceOrLastTrade(pos.Token, pos.ChainID)
		if j.Detector != nil {
			if _, ok := j.Detector.Check(domain.SideSell, pos.ChainID, pos.Token, j.MinWhale, now); ok {
				sellConfluence[pos.Token] = true
			}
		}
	}

	return j.Trader.Mark(now, prices, sellConfluence)
}

// WatchlistMaintenanceJob wraps watchlist.Maintainer.
type WatchlistMaintenanceJob struct {
	Maintainer *watchlist.Maintainer
}

func (j *WatchlistMaintenanceJob) Name() string { return "watchlist_maintenance" }
func (j *WatchlistMaintenanceJob) Run(ctx context.Context) error {
	return j.Maintainer.Run(time.Now().UTC())
}
