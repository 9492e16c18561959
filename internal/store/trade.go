package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// TradeRepository owns the append-only trades table, idempotent on
// tx_hash.
type TradeRepository struct {
	base
}

// NewTradeRepository builds a TradeRepository.
func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{base: newBase(db, log, "trade")}
}

// Insert appends a trade. Reinserting the same tx_hash is a no-op and
// is not treated as an error.
func (r *TradeRepository) Insert(t domain.Trade) (inserted bool, err error) {
	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO trades (tx_hash, ts, chain_id, wallet, token, side, qty_token, price_usd, usd_value, fee_usd, venue)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TxHash, t.Timestamp, t.ChainID, t.Wallet, t.Token, string(t.Side),
		t.QtyToken, t.PriceUSD, t.USDValue, t.FeeUSD, t.Venue)
	if err != nil {
		return false, fmt.Errorf("insert trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert trade rows affected: %w", err)
	}
	return n > 0, nil
}

// ForWalletToken returns the chronologically ordered trades for one
// (wallet, token) pair within the window starting at since.
func (r *TradeRepository) ForWalletToken(wallet, token string, since time.Time) ([]domain.Trade, error) {
	rows, err := r.db.Query(`
		SELECT tx_hash, ts, chain_id, wallet, token, side, qty_token, price_usd, usd_value, fee_usd, venue
		FROM trades WHERE wallet = ? AND token = ? AND ts >= ? ORDER BY ts ASC`, wallet, token, since)
	if err != nil {
		return nil, fmt.Errorf("trades for wallet/token: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ForWallet returns every trade for a wallet within the window,
// ordered by time, across all tokens — used by the bot filter and
// stats rollup.
func (r *TradeRepository) ForWallet(wallet string, since time.Time) ([]domain.Trade, error) {
	rows, err := r.db.Query(`
		SELECT tx_hash, ts, chain_id, wallet, token, side, qty_token, price_usd, usd_value, fee_usd, venue
		FROM trades WHERE wallet = ? AND ts >= ? ORDER BY ts ASC`, wallet, since)
	if err != nil {
		return nil, fmt.Errorf("trades for wallet: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// AroundTimestamp returns trades of one token within [ts-window, ts+window],
// used by the EarlyScore participation term.
func (r *TradeRepository) AroundTimestamp(chainID, token string, ts time.Time, window time.Duration) ([]domain.Trade, error) {
	rows, err := r.db.Query(`
		SELECT tx_hash, ts, chain_id, wallet, token, side, qty_token, price_usd, usd_value, fee_usd, venue
		FROM trades WHERE chain_id = ? AND token = ? AND ts >= ? AND ts <= ?`,
		chainID, token, ts.Add(-window), ts.Add(window))
	if err != nil {
		return nil, fmt.Errorf("trades around timestamp: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// LatestPrice returns the most recent trade price for a token, the
// price router's fallback when every live source fails.
func (r *TradeRepository) LatestPrice(chainID, token string) (float64, error) {
	row := r.db.QueryRow(`
		SELECT price_usd FROM trades WHERE chain_id = ? AND token = ? ORDER BY ts DESC LIMIT 1`, chainID, token)
	var p float64
	if err := row.Scan(&p); err != nil {
		if err == sql.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("latest trade price: %w", err)
	}
	return p, nil
}

// SinceTxHash returns a wallet's trades after a cursor tx_hash (by
// timestamp, exclusive of the cursor trade itself). An empty cursor
// returns every trade since the lookback horizon.
func (r *TradeRepository) SinceTxHash(wallet, cursorTxHash string, lookback time.Time, limit int) ([]domain.Trade, error) {
	var cursorTS time.Time
	if cursorTxHash != "" {
		row := r.db.QueryRow(`SELECT ts FROM trades WHERE tx_hash = ?`, cursorTxHash)
		if err := row.Scan(&cursorTS); err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("cursor lookup: %w", err)
		}
	}
	if cursorTS.Before(lookback) {
		cursorTS = lookback
	}
	rows, err := r.db.Query(`
		SELECT tx_hash, ts, chain_id, wallet, token, side, qty_token, price_usd, usd_value, fee_usd, venue
		FROM trades WHERE wallet = ? AND ts > ? ORDER BY ts ASC LIMIT ?`, wallet, cursorTS, limit)
	if err != nil {
		return nil, fmt.Errorf("trades since cursor: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// Recent returns the most recent trades across every wallet and
// token, newest first, for the dashboard activity feed.
func (r *TradeRepository) Recent(limit int) ([]domain.Trade, error) {
	rows, err := r.db.Query(`
		SELECT tx_hash, ts, chain_id, wallet, token, side, qty_token, price_usd, usd_value, fee_usd, venue
		FROM trades ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]domain.Trade, error) {
	var out []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var side string
		if err := rows.Scan(&t.TxHash, &t.Timestamp, &t.ChainID, &t.Wallet, &t.Token, &side,
			&t.QtyToken, &t.PriceUSD, &t.USDValue, &t.FeeUSD, &t.Venue); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Side = domain.Side(side)
		out = append(out, t)
	}
	return out, rows.Err()
}
