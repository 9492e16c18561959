package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// PositionRepository owns the positions table. Positions are derived
// state: the analytics engine recomputes and overwrites them; this
// repository only persists and loads the result.
type PositionRepository struct {
	base
}

// NewPositionRepository builds a PositionRepository.
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{base: newBase(db, log, "position")}
}

// Save replaces the persisted Position for (wallet, token).
func (r *PositionRepository) Save(p domain.Position) error {
	lotsJSON, err := json.Marshal(p.OpenLots)
	if err != nil {
		return fmt.Errorf("marshal open lots: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO positions (wallet, token, chain_id, open_qty, cost_basis_usd,
			realized_pnl_usd, unrealized_pnl_usd, last_mark_price, last_updated_at, open_lots_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wallet, token) DO UPDATE SET
			chain_id = excluded.chain_id,
			open_qty = excluded.open_qty,
			cost_basis_usd = excluded.cost_basis_usd,
			realized_pnl_usd = excluded.realized_pnl_usd,
			unrealized_pnl_usd = excluded.unrealized_pnl_usd,
			last_mark_price = excluded.last_mark_price,
			last_updated_at = excluded.last_updated_at,
			open_lots_json = excluded.open_lots_json
	`, p.Wallet, p.Token, p.ChainID, p.OpenQty, p.CostBasisUSD, p.RealizedPnLUSD,
		p.UnrealizedPnLUSD, p.LastMarkPrice, p.LastUpdatedAt, string(lotsJSON))
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// Get loads the persisted Position for (wallet, token).
func (r *PositionRepository) Get(wallet, token string) (*domain.Position, error) {
	row := r.db.QueryRow(`
		SELECT wallet, token, chain_id, open_qty, cost_basis_usd, realized_pnl_usd,
			unrealized_pnl_usd, last_mark_price, last_updated_at, open_lots_json
		FROM positions WHERE wallet = ? AND token = ?`, wallet, token)
	var p domain.Position
	var lotsJSON string
	if err := row.Scan(&p.Wallet, &p.Token, &p.ChainID, &p.OpenQty, &p.CostBasisUSD,
		&p.RealizedPnLUSD, &p.UnrealizedPnLUSD, &p.LastMarkPrice, &p.LastUpdatedAt, &lotsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	if err := json.Unmarshal([]byte(lotsJSON), &p.OpenLots); err != nil {
		return nil, fmt.Errorf("unmarshal open lots: %w", err)
	}
	return &p, nil
}

// ForWallet returns every persisted Position for a wallet.
func (r *PositionRepository) ForWallet(wallet string) ([]domain.Position, error) {
	rows, err := r.db.Query(`
		SELECT wallet, token, chain_id, open_qty, cost_basis_usd, realized_pnl_usd,
			unrealized_pnl_usd, last_mark_price, last_updated_at, open_lots_json
		FROM positions WHERE wallet = ?`, wallet)
	if err != nil {
		return nil, fmt.Errorf("positions for wallet: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		var p domain.Position
		var lotsJSON string
		if err := rows.Scan(&p.Wallet, &p.Token, &p.ChainID, &p.OpenQty, &p.CostBasisUSD,
			&p.RealizedPnLUSD, &p.UnrealizedPnLUSD, &p.LastMarkPrice, &p.LastUpdatedAt, &lotsJSON); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		if err := json.Unmarshal([]byte(lotsJSON), &p.OpenLots); err != nil {
			return nil, fmt.Errorf("unmarshal open lots: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
