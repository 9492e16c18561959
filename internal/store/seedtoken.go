package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// SeedTokenRepository owns the append-only seed_tokens table.
type SeedTokenRepository struct {
	base
}

// NewSeedTokenRepository builds a SeedTokenRepository.
func NewSeedTokenRepository(db *sql.DB, log zerolog.Logger) *SeedTokenRepository {
	return &SeedTokenRepository{base: newBase(db, log, "seed_token")}
}

// Append inserts one trending snapshot. A row whose (token, chain,
// source, snapshot_ts) already exists is left as it is, so re-running a
// pass for the same snapshot adds nothing; a synthetic id is assigned
// if absent.
func (r *SeedTokenRepository) Append(s domain.SeedToken) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.Exec(`
		INSERT INTO seed_tokens (id, token_address, chain_id, source, snapshot_ts, rank, volume_24h, change_24h_pct)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM seed_tokens
			WHERE token_address = ? AND chain_id = ? AND source = ? AND snapshot_ts = ?)`,
		s.ID, s.TokenAddress, s.ChainID, s.Source, s.SnapshotTS, s.Rank, s.Volume24h, s.Change24hPct,
		s.TokenAddress, s.ChainID, s.Source, s.SnapshotTS)
	if err != nil {
		return fmt.Errorf("append seed token: %w", err)
	}
	return nil
}

// RecentTokens returns the distinct (chain, token) pairs seen in any
// SeedToken snapshot within the given lookback window.
func (r *SeedTokenRepository) RecentTokens(since time.Time) ([]struct{ ChainID, TokenAddress string }, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT chain_id, token_address FROM seed_tokens WHERE snapshot_ts >= ?`, since)
	if err != nil {
		return nil, fmt.Errorf("recent seed tokens: %w", err)
	}
	defer rows.Close()

	var out []struct{ ChainID, TokenAddress string }
	for rows.Next() {
		var item struct{ ChainID, TokenAddress string }
		if err := rows.Scan(&item.ChainID, &item.TokenAddress); err != nil {
			return nil, fmt.Errorf("scan recent seed token: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// RecentHighLiquidity returns distinct (chain, token) pairs from
// snapshots since the given time whose reported 24h volume is at
// least minVolume24h, used by whale_discovery to focus on liquid
// tokens worth a deeper transfer page.
func (r *SeedTokenRepository) RecentHighLiquidity(since time.Time, minVolume24h float64) ([]struct{ ChainID, TokenAddress string }, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT chain_id, token_address FROM seed_tokens
		WHERE snapshot_ts >= ? AND volume_24h >= ?`, since, minVolume24h)
	if err != nil {
		return nil, fmt.Errorf("recent high liquidity seed tokens: %w", err)
	}
	defer rows.Close()

	var out []struct{ ChainID, TokenAddress string }
	for rows.Next() {
		var item struct{ ChainID, TokenAddress string }
		if err := rows.Scan(&item.ChainID, &item.TokenAddress); err != nil {
			return nil, fmt.Errorf("scan high liquidity seed token: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// LatestVolume24h returns the most recently observed 24h volume for a
// token across any source, used by the paper trader's meme-coin band
// check. Returns 0 if the token has no snapshot yet.
func (r *SeedTokenRepository) LatestVolume24h(chainID, tokenAddress string) (float64, error) {
	row := r.db.QueryRow(`
		SELECT volume_24h FROM seed_tokens
		WHERE chain_id = ? AND token_address = ?
		ORDER BY snapshot_ts DESC LIMIT 1`, chainID, tokenAddress)
	var v float64
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("latest volume 24h: %w", err)
	}
	return v, nil
}

// Recent returns the most recently observed trending snapshots across
// every source, newest first, for the dashboard's trending-tokens view.
func (r *SeedTokenRepository) Recent(limit int) ([]domain.SeedToken, error) {
	rows, err := r.db.Query(`
		SELECT id, token_address, chain_id, source, snapshot_ts, rank, volume_24h, change_24h_pct
		FROM seed_tokens ORDER BY snapshot_ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent seed token snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.SeedToken
	for rows.Next() {
		var s domain.SeedToken
		if err := rows.Scan(&s.ID, &s.TokenAddress, &s.ChainID, &s.Source, &s.SnapshotTS, &s.Rank, &s.Volume24h, &s.Change24hPct); err != nil {
			return nil, fmt.Errorf("scan seed token snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UniqueBuyersBefore counts distinct wallets that bought a token
// strictly before the given timestamp, feeding the EarlyScore
// rank_percentile term.
func (r *SeedTokenRepository) UniqueBuyersBefore(chainID, tokenAddress string, before time.Time) (int, error) {
	row := r.db.QueryRow(`
		SELECT COUNT(DISTINCT wallet) FROM trades
		WHERE chain_id = ? AND token = ? AND side = 'buy' AND ts < ?`,
		chainID, tokenAddress, before)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("unique buyers before: %w", err)
	}
	return n, nil
}

// TotalUniqueBuyers counts all distinct wallets that ever bought a token.
func (r *SeedTokenRepository) TotalUniqueBuyers(chainID, tokenAddress string) (int, error) {
	row := r.db.QueryRow(`
		SELECT COUNT(DISTINCT wallet) FROM trades
		WHERE chain_id = ? AND token = ? AND side = 'buy'`, chainID, tokenAddress)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("total unique buyers: %w", err)
	}
	return n, nil
}
