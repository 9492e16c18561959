// Package config loads application configuration from environment
// variables (.env via godotenv) with typed defaults matching every
// tunable in the specification's configuration table.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Server
	Port    int
	DevMode bool

	// Data directory (entities.db, papertrader.msgpack, meme_filter.yaml)
	DataDir string

	// Chains active for ingestion and monitoring.
	Chains []string

	// Confluence detector
	ConfluenceMinutes   int
	ConfluenceMinWallets int

	// Trending / ingestion
	MinUniqueBuyers24h int
	WalletBackfillDays int
	RunnerPollMinutes  int
	WhaleMinUSDValue   float64

	// Watchlist thresholds
	AddMinTrades30d          int
	AddMinRealizedPnL30dUSD  float64
	AddMinBestTradeMultiple  float64
	RemoveIfRealizedPnLLt    float64
	RemoveIfMaxDrawdownPctGt float64
	RemoveIfTrades30dLt      int
	WatchlistTopK            int

	// Paper trader
	StartingPaperBalanceUSD float64
	MaxOpenPositions        int

	// Price router
	PriceCacheTTL        time.Duration
	PriceSourceFailCap   int
	PriceFailResetPeriod time.Duration

	// Source API keys (one per adapter, all optional)
	DexScreenerAPIKey string
	BirdeyeAPIKey     string
	CoinGeckoAPIKey   string

	// Per-chain RPC URLs, keyed by chain id and read from the env var named
	// after the upper-cased chain id (e.g. ETHEREUM_RPC_URL -> "ethereum").
	ChainRPCURLs map[string]string

	// Cloud backup (S3 / R2 compatible)
	BackupEnabled         bool
	BackupBucket          string
	BackupEndpoint        string
	BackupRegion          string
	BackupAccessKeyID     string
	BackupSecretAccessKey string
	BackupIntervalHours   int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	chains := splitCSV(getEnv("CHAINS", "ethereum,base,arbitrum,solana"))
	chainRPCs := make(map[string]string, len(chains))
	for _, c := range chains {
		key := strings.ToUpper(c) + "_RPC_URL"
		if v := os.Getenv(key); v != "" {
			chainRPCs[c] = v
		}
	}

	cfg := &Config{
		Port:    getEnvAsInt("GO_PORT", 8001),
		DevMode: getEnvAsBool("DEV_MODE", false),
		DataDir: dataDir,
		Chains:  chains,

		ConfluenceMinutes:    getEnvAsInt("CONFLUENCE_MINUTES", 30),
		ConfluenceMinWallets: getEnvAsInt("CONFLUENCE_MIN_WALLETS", 2),

		MinUniqueBuyers24h: getEnvAsInt("MIN_UNIQUE_BUYERS_24H", 30),
		WalletBackfillDays: getEnvAsInt("WALLET_BACKFILL_DAYS", 30),
		RunnerPollMinutes:  getEnvAsInt("RUNNER_POLL_MINUTES", 5),
		WhaleMinUSDValue:   getEnvAsFloat("WHALE_MIN_USD_VALUE", 10000.0),

		AddMinTrades30d:          getEnvAsInt("ADD_MIN_TRADES_30D", 5),
		AddMinRealizedPnL30dUSD:  getEnvAsFloat("ADD_MIN_REALIZED_PNL_30D_USD", 50000.0),
		AddMinBestTradeMultiple:  getEnvAsFloat("ADD_MIN_BEST_TRADE_MULTIPLE", 3.0),
		RemoveIfRealizedPnLLt:    getEnvAsFloat("REMOVE_IF_REALIZED_PNL_30D_LT", 0.0),
		RemoveIfMaxDrawdownPctGt: getEnvAsFloat("REMOVE_IF_MAX_DRAWDOWN_PCT_GT", 50.0),
		RemoveIfTrades30dLt:      getEnvAsInt("REMOVE_IF_TRADES_30D_LT", 2),
		WatchlistTopK:            getEnvAsInt("WATCHLIST_TOP_K", 30),

		StartingPaperBalanceUSD: getEnvAsFloat("STARTING_PAPER_BALANCE", 1000.0),
		MaxOpenPositions:        getEnvAsInt("MAX_OPEN_POSITIONS", 3),

		PriceCacheTTL:        getEnvAsDuration("PRICE_CACHE_TTL", 60*time.Second),
		PriceSourceFailCap:   getEnvAsInt("PRICE_SOURCE_FAIL_CAP", 5),
		PriceFailResetPeriod: getEnvAsDuration("PRICE_FAIL_RESET_PERIOD", time.Hour),

		DexScreenerAPIKey: getEnv("DEXSCREENER_API_KEY", ""),
		BirdeyeAPIKey:     getEnv("BIRDEYE_API_KEY", ""),
		CoinGeckoAPIKey:   getEnv("COINGECKO_API_KEY", ""),
		ChainRPCURLs:      chainRPCs,

		BackupEnabled:         getEnvAsBool("BACKUP_ENABLED", false),
		BackupBucket:          getEnv("BACKUP_BUCKET", ""),
		BackupEndpoint:        getEnv("BACKUP_ENDPOINT", ""),
		BackupRegion:          getEnv("BACKUP_REGION", "auto"),
		BackupAccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		BackupSecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		BackupIntervalHours:   getEnvAsInt("BACKUP_INTERVAL_HOURS", 6),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if len(c.Chains) == 0 {
		return fmt.Errorf("CHAINS must list at least one chain")
	}
	if c.BackupEnabled && c.BackupBucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when BACKUP_ENABLED=true")
	}
	return nil
}

// EntitiesDBPath returns the path of the shared entity store.
func (c *Config) EntitiesDBPath() string {
	return c.DataDir + "/entities.db"
}

// PaperTraderDBPath returns the path of the paper trader's durable log.
func (c *Config) PaperTraderDBPath() string {
	return c.DataDir + "/papertrader.msgpack"
}

// MemeFilterPath returns the path of the meme-coin filter / exclusion config.
func (c *Config) MemeFilterPath() string {
	return c.DataDir + "/meme_filter.yaml"
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
