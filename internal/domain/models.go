// Package domain holds the entities and value types shared across the
// pipeline: tokens, wallets, trades, derived positions/stats, the
// watchlist, and alerts. Nothing here talks to a database or an
// external API; every other package depends on domain, never the
// reverse.
package domain

import "time"

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// AlertType distinguishes a single-wallet signal from a confluence
// signal from a paper-trade exit outcome.
type AlertType string

const (
	AlertTypeSingle     AlertType = "single"
	AlertTypeConfluence AlertType = "confluence"
	AlertTypeExit       AlertType = "exit"
)

// Token is a unique on-chain asset, keyed by address. ChainID is carried
// alongside the address because addresses are only unique within a chain.
type Token struct {
	Address          string    `json:"address"`
	ChainID          string    `json:"chain_id"`
	Symbol           string    `json:"symbol"`
	FirstSeenAt      time.Time `json:"first_seen_at"`
	LastPriceUSD     float64   `json:"last_price_usd"`
	LastLiquidityUSD float64   `json:"last_liquidity_usd"`
	IsHoneypot       bool      `json:"is_honeypot"`
	BuyTaxPct        float64   `json:"buy_tax_pct"`
	SellTaxPct       float64   `json:"sell_tax_pct"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SeedToken is an append-only "trending" observation from one source.
type SeedToken struct {
	ID           string    `json:"id"`
	TokenAddress string    `json:"token_address"`
	ChainID      string    `json:"chain_id"`
	Source       string    `json:"source"`
	SnapshotTS   time.Time `json:"snapshot_ts"`
	Rank         int       `json:"rank"`
	Volume24h    float64   `json:"volume_24h"`
	Change24hPct float64   `json:"change_24h_pct"`
}

// Wallet is a discovered address. IsBot is sticky once set.
type Wallet struct {
	Address      string    `json:"address"`
	ChainID      string    `json:"chain_id"`
	DiscoveredAt time.Time `json:"discovered_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	IsContract   bool      `json:"is_contract"`
	IsBot        bool      `json:"is_bot"`
}

// Trade is an append-only, idempotent (on TxHash) execution record.
type Trade struct {
	TxHash    string    `json:"tx_hash"`
	Timestamp time.Time `json:"ts"`
	ChainID   string    `json:"chain_id"`
	Wallet    string    `json:"wallet"`
	Token     string    `json:"token"`
	Side      Side      `json:"side"`
	QtyToken  float64   `json:"qty_token"`
	PriceUSD  float64   `json:"price_usd"`
	USDValue  float64   `json:"usd_value"`
	FeeUSD    float64   `json:"fee_usd"`
	Venue     string    `json:"venue,omitempty"`
}

// Lot is one FIFO-queued open buy lot for a (wallet, token) pair.
type Lot struct {
	Qty          float64
	CostBasisUSD float64 // total cost basis for this lot (qty * unit cost, fee-inclusive)
}

// Position is the derived, recomputable FIFO state for a (wallet, token) pair.
type Position struct {
	Wallet           string    `json:"wallet"`
	Token            string    `json:"token"`
	ChainID          string    `json:"chain_id"`
	OpenQty          float64   `json:"open_qty"`
	CostBasisUSD     float64   `json:"cost_basis_usd"`
	RealizedPnLUSD   float64   `json:"realized_pnl_usd"`
	UnrealizedPnLUSD float64   `json:"unrealized_pnl_usd"`
	LastMarkPrice    float64   `json:"last_mark_price"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
	OpenLots         []Lot     `json:"-"`
}

// WalletStats30D is the rolling-30-day aggregation consumed by the
// watchlist ranker.
type WalletStats30D struct {
	Wallet            string    `json:"wallet"`
	ChainID           string    `json:"chain_id"`
	TradeCount        int       `json:"trade_count"`
	RealizedPnLUSD    float64   `json:"realized_pnl_usd"`
	UnrealizedPnLUSD  float64   `json:"unrealized_pnl_usd"`
	BestTradeMultiple float64   `json:"best_trade_multiple"`
	MedianEarlyScore  float64   `json:"median_early_score"`
	MaxDrawdownPct    float64   `json:"max_drawdown_pct"`
	LastUpdatedAt     time.Time `json:"last_updated_at"`
}

// CustomWatchlistWallet is a user-curated "always monitor" entry,
// independent of the auto-discovered pool.
type CustomWatchlistWallet struct {
	Address  string `json:"address"`
	ChainID  string `json:"chain_id"`
	Label    string `json:"label"`
	IsActive bool   `json:"is_active"`
}

// Alert is an immutable record of an emitted signal.
type Alert struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"ts"`
	Type      AlertType              `json:"type"`
	Token     string                 `json:"token"`
	ChainID   string                 `json:"chain_id"`
	WalletSet []string               `json:"wallet_set"`
	RuleID    string                 `json:"rule_id,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
}
