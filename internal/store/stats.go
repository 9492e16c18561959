package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// WalletStatsRepository owns the wallet_stats_30d table.
type WalletStatsRepository struct {
	base
}

// NewWalletStatsRepository builds a WalletStatsRepository.
func NewWalletStatsRepository(db *sql.DB, log zerolog.Logger) *WalletStatsRepository {
	return &WalletStatsRepository{base: newBase(db, log, "wallet_stats")}
}

// Save replaces the persisted stats row for a wallet.
func (r *WalletStatsRepository) Save(s domain.WalletStats30D) error {
	_, err := r.db.Exec(`
		INSERT INTO wallet_stats_30d (wallet, chain_id, trade_count, realized_pnl_usd,
			unrealized_pnl_usd, best_trade_multiple, median_early_score, max_drawdown_pct, last_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wallet) DO UPDATE SET
			chain_id = excluded.chain_id,
			trade_count = excluded.trade_count,
			realized_pnl_usd = excluded.realized_pnl_usd,
			unrealized_pnl_usd = excluded.unrealized_pnl_usd,
			best_trade_multiple = excluded.best_trade_multiple,
			median_early_score = excluded.median_early_score,
			max_drawdown_pct = excluded.max_drawdown_pct,
			last_updated_at = excluded.last_updated_at
	`, s.Wallet, s.ChainID, s.TradeCount, s.RealizedPnLUSD, s.UnrealizedPnLUSD,
		s.BestTradeMultiple, s.MedianEarlyScore, s.MaxDrawdownPct, s.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("save wallet stats: %w", err)
	}
	return nil
}

// Get loads the stats row for a wallet.
func (r *WalletStatsRepository) Get(wallet string) (*domain.WalletStats30D, error) {
	row := r.db.QueryRow(`
		SELECT wallet, chain_id, trade_count, realized_pnl_usd, unrealized_pnl_usd,
			best_trade_multiple, median_early_score, max_drawdown_pct, last_updated_at
		FROM wallet_stats_30d WHERE wallet = ?`, wallet)
	var s domain.WalletStats30D
	if err := row.Scan(&s.Wallet, &s.ChainID, &s.TradeCount, &s.RealizedPnLUSD, &s.UnrealizedPnLUSD,
		&s.BestTradeMultiple, &s.MedianEarlyScore, &s.MaxDrawdownPct, &s.LastUpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet stats: %w", err)
	}
	return &s, nil
}

// All returns every persisted wallet stats row, the population the
// watchlist ranker scores over.
func (r *WalletStatsRepository) All() ([]domain.WalletStats30D, error) {
	rows, err := r.db.Query(`
		SELECT wallet, chain_id, trade_count, realized_pnl_usd, unrealized_pnl_usd,
			best_trade_multiple, median_early_score, max_drawdown_pct, last_updated_at
		FROM wallet_stats_30d`)
	if err != nil {
		return nil, fmt.Errorf("all wallet stats: %w", err)
	}
	defer rows.Close()

	var out []domain.WalletStats30D
	for rows.Next() {
		var s domain.WalletStats30D
		if err := rows.Scan(&s.Wallet, &s.ChainID, &s.TradeCount, &s.RealizedPnLUSD, &s.UnrealizedPnLUSD,
			&s.BestTradeMultiple, &s.MedianEarlyScore, &s.MaxDrawdownPct, &s.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
