package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// CursorRepository tracks, per (chain, wallet), the tx_hash of the
// most recently ingested trade — the wallet monitor's resume point.
type CursorRepository struct {
	base
}

// NewCursorRepository builds a CursorRepository.
func NewCursorRepository(db *sql.DB, log zerolog.Logger) *CursorRepository {
	return &CursorRepository{base: newBase(db, log, "cursor")}
}

// Get returns the last seen tx_hash for a wallet, or "" if none.
func (r *CursorRepository) Get(chainID, wallet string) (string, error) {
	row := r.db.QueryRow(`SELECT last_tx_hash FROM wallet_monitor_cursor WHERE chain_id = ? AND wallet = ?`, chainID, wallet)
	var cursor string
	if err := row.Scan(&cursor); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get cursor: %w", err)
	}
	return cursor, nil
}

// Advance records the new cursor after a successful ingest batch.
func (r *CursorRepository) Advance(chainID, wallet, txHash string) error {
	_, err := r.db.Exec(`
		INSERT INTO wallet_monitor_cursor (wallet, chain_id, last_tx_hash, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(chain_id, wallet) DO UPDATE SET last_tx_hash = excluded.last_tx_hash, updated_at = datetime('now')
	`, wallet, chainID, txHash)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}
