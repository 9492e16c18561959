package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// WalletRepository owns the wallets table.
type WalletRepository struct {
	base
}

// NewWalletRepository builds a WalletRepository.
func NewWalletRepository(db *sql.DB, log zerolog.Logger) *WalletRepository {
	return &WalletRepository{base: newBase(db, log, "wallet")}
}

// UpsertSeen creates a wallet on first sighting and bumps LastActiveAt
// on every subsequent sighting. IsBot is never touched here; only the
// bot filter mutates it, and only in one direction.
func (r *WalletRepository) UpsertSeen(chainID, address string, isContract bool, seenAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO wallets (address, chain_id, discovered_at, last_active_at, is_contract, is_bot)
		VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT(chain_id, address) DO UPDATE SET
			last_active_at = excluded.last_active_at,
			is_contract = excluded.is_contract OR wallets.is_contract
	`, address, chainID, seenAt, seenAt, isContract)
	if err != nil {
		return fmt.Errorf("upsert wallet: %w", err)
	}
	return nil
}

// Get looks up a wallet by chain and address.
func (r *WalletRepository) Get(chainID, address string) (*domain.Wallet, error) {
	row := r.db.QueryRow(`
		SELECT address, chain_id, discovered_at, last_active_at, is_contract, is_bot
		FROM wallets WHERE chain_id = ? AND address = ?`, chainID, address)
	var w domain.Wallet
	if err := row.Scan(&w.Address, &w.ChainID, &w.DiscoveredAt, &w.LastActiveAt, &w.IsContract, &w.IsBot); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &w, nil
}

// MarkBot sets is_bot = true. Flagging is sticky: this never unsets it.
func (r *WalletRepository) MarkBot(chainID, address string) error {
	_, err := r.db.Exec(`UPDATE wallets SET is_bot = 1 WHERE chain_id = ? AND address = ?`, chainID, address)
	if err != nil {
		return fmt.Errorf("mark bot: %w", err)
	}
	return nil
}

// NonBotActiveSince returns every non-bot wallet active since the
// given time, the candidate population for stats_rollup.
func (r *WalletRepository) NonBotActiveSince(since time.Time) ([]domain.Wallet, error) {
	rows, err := r.db.Query(`
		SELECT address, chain_id, discovered_at, last_active_at, is_contract, is_bot
		FROM wallets WHERE is_bot = 0 AND last_active_at >= ?`, since)
	if err != nil {
		return nil, fmt.Errorf("non-bot wallets: %w", err)
	}
	defer rows.Close()

	var out []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.Address, &w.ChainID, &w.DiscoveredAt, &w.LastActiveAt, &w.IsContract, &w.IsBot); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
