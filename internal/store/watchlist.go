package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// WatchlistMember is one row of the monitored-wallet pool, merging
// auto-discovered and custom entries under a single membership table.
type WatchlistMember struct {
	Wallet   string
	ChainID  string
	IsCustom bool
	IsActive bool
	Label    string
	Score    float64
}

// WatchlistRepository owns the watchlist_membership table — the
// union of auto-discovered and custom-curated monitored wallets.
type WatchlistRepository struct {
	base
}

// NewWatchlistRepository builds a WatchlistRepository.
func NewWatchlistRepository(db *sql.DB, log zerolog.Logger) *WatchlistRepository {
	return &WatchlistRepository{base: newBase(db, log, "watchlist")}
}

// Upsert adds or refreshes a membership row.
func (r *WatchlistRepository) Upsert(m WatchlistMember) error {
	_, err := r.db.Exec(`
		INSERT INTO watchlist_membership (wallet, chain_id, is_custom, is_active, label, score, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))
		ON CONFLICT(wallet) DO UPDATE SET
			is_custom = excluded.is_custom OR watchlist_membership.is_custom,
			is_active = excluded.is_active,
			label = CASE WHEN excluded.label != '' THEN excluded.label ELSE watchlist_membership.label END,
			score = excluded.score,
			updated_at = datetime('now')
	`, m.Wallet, m.ChainID, m.IsCustom, m.IsActive, m.Label, m.Score)
	if err != nil {
		return fmt.Errorf("upsert watchlist member: %w", err)
	}
	return nil
}

// Deactivate soft-removes a wallet from the auto-discovered pool
// (tombstone, per the spec's assumed soft-removal semantics).
func (r *WatchlistRepository) Deactivate(wallet string) error {
	_, err := r.db.Exec(`UPDATE watchlist_membership SET is_active = 0, updated_at = datetime('now') WHERE wallet = ?`, wallet)
	if err != nil {
		return fmt.Errorf("deactivate watchlist member: %w", err)
	}
	return nil
}

// Active returns every currently active membership row — the set
// actually polled by the wallet monitor.
func (r *WatchlistRepository) Active() ([]WatchlistMember, error) {
	rows, err := r.db.Query(`
		SELECT wallet, chain_id, is_custom, is_active, label, score
		FROM watchlist_membership WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("active watchlist members: %w", err)
	}
	defer rows.Close()

	var out []WatchlistMember
	for rows.Next() {
		var m WatchlistMember
		if err := rows.Scan(&m.Wallet, &m.ChainID, &m.IsCustom, &m.IsActive, &m.Label, &m.Score); err != nil {
			return nil, fmt.Errorf("scan watchlist member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CustomWalletRepository owns the user-curated custom_watchlist side
// of the pool. It is represented as is_custom=true rows in the same
// membership table, exposed here as a focused CRUD surface for the
// dashboard.
type CustomWalletRepository struct {
	base
}

// NewCustomWalletRepository builds a CustomWalletRepository.
func NewCustomWalletRepository(db *sql.DB, log zerolog.Logger) *CustomWalletRepository {
	return &CustomWalletRepository{base: newBase(db, log, "custom_watchlist")}
}

// Add inserts or reactivates a custom-curated wallet.
func (r *CustomWalletRepository) Add(chainID, address, label string) error {
	_, err := r.db.Exec(`
		INSERT INTO watchlist_membership (wallet, chain_id, is_custom, is_active, label, score, added_at, updated_at)
		VALUES (?, ?, 1, 1, ?, 0, datetime('now'), datetime('now'))
		ON CONFLICT(wallet) DO UPDATE SET
			is_custom = 1, is_active = 1, label = excluded.label, updated_at = datetime('now')
	`, address, chainID, label)
	if err != nil {
		return fmt.Errorf("add custom wallet: %w", err)
	}
	return nil
}

// Remove soft-removes a custom wallet (tombstone, consistent with the
// auto-discovered pool's removal semantics).
func (r *CustomWalletRepository) Remove(address string) error {
	_, err := r.db.Exec(`UPDATE watchlist_membership SET is_active = 0, updated_at = datetime('now') WHERE wallet = ? AND is_custom = 1`, address)
	if err != nil {
		return fmt.Errorf("remove custom wallet: %w", err)
	}
	return nil
}

// List returns every custom-curated wallet, active or not.
func (r *CustomWalletRepository) List() ([]WatchlistMember, error) {
	rows, err := r.db.Query(`
		SELECT wallet, chain_id, is_custom, is_active, label, score
		FROM watchlist_membership WHERE is_custom = 1`)
	if err != nil {
		return nil, fmt.Errorf("list custom wallets: %w", err)
	}
	defer rows.Close()

	var out []WatchlistMember
	for rows.Next() {
		var m WatchlistMember
		if err := rows.Scan(&m.Wallet, &m.ChainID, &m.IsCustom, &m.IsActive, &m.Label, &m.Score); err != nil {
			return nil, fmt.Errorf("scan custom wallet: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
