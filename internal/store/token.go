package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// TokenRepository owns the tokens table.
type TokenRepository struct {
	base
}

// NewTokenRepository builds a TokenRepository.
func NewTokenRepository(db *sql.DB, log zerolog.Logger) *TokenRepository {
	return &TokenRepository{base: newBase(db, log, "token")}
}

// Upsert creates or refreshes a Token. Symbol, price, liquidity, and
// risk flags are updated in place; FirstSeenAt is preserved across
// repeated upserts of the same (chain_id, address).
func (r *TokenRepository) Upsert(t domain.Token) error {
	now := t.UpdatedAt
	if now.IsZero() {
		now = timeNow()
	}
	_, err := r.db.Exec(`
		INSERT INTO tokens (address, chain_id, symbol, first_seen_at, last_price_usd,
			last_liquidity_usd, is_honeypot, buy_tax_pct, sell_tax_pct, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chain_id, address) DO UPDATE SET
			symbol = excluded.symbol,
			last_price_usd = excluded.last_price_usd,
			last_liquidity_usd = excluded.last_liquidity_usd,
			is_honeypot = excluded.is_honeypot,
			buy_tax_pct = excluded.buy_tax_pct,
			sell_tax_pct = excluded.sell_tax_pct,
			updated_at = excluded.updated_at
	`, t.Address, t.ChainID, t.Symbol, t.FirstSeenAt, t.LastPriceUSD, t.LastLiquidityUSD,
		t.IsHoneypot, t.BuyTaxPct, t.SellTaxPct, now)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// Get looks up a token by chain and address.
func (r *TokenRepository) Get(chainID, address string) (*domain.Token, error) {
	row := r.db.QueryRow(`
		SELECT address, chain_id, symbol, first_seen_at, last_price_usd,
			last_liquidity_usd, is_honeypot, buy_tax_pct, sell_tax_pct, updated_at
		FROM tokens WHERE chain_id = ? AND address = ?`, chainID, address)
	var t domain.Token
	if err := row.Scan(&t.Address, &t.ChainID, &t.Symbol, &t.FirstSeenAt, &t.LastPriceUSD,
		&t.LastLiquidityUSD, &t.IsHoneypot, &t.BuyTaxPct, &t.SellTaxPct, &t.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &t, nil
}

// UpdateMark refreshes only the last observed price/liquidity of a token.
func (r *TokenRepository) UpdateMark(chainID, address string, priceUSD, liquidityUSD float64) error {
	_, err := r.db.Exec(`
		UPDATE tokens SET last_price_usd = ?, last_liquidity_usd = ?, updated_at = ?
		WHERE chain_id = ? AND address = ?`,
		priceUSD, liquidityUSD, timeNow(), chainID, address)
	if err != nil {
		return fmt.Errorf("update token mark: %w", err)
	}
	return nil
}

func timeNow() time.Time { return time.Now().UTC() }
