// Package solana implements domain.ChainAdapter for Solana. The same
// pool-occurrence heuristic from the EVM adapter applies, simplified
// since Solana addresses are opaque base58 strings with no checksum
// normalization step.
package solana

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// TransferFeed is the minimal capability this adapter needs from a
// concrete Solana client.
type TransferFeed interface {
	TokenTransfers(tokenAddress string, limit int) ([]domain.Transfer, error)
	WalletTransfers(walletAddress string, sinceTxHash string, limit int) ([]domain.Transfer, error)
}

// PoolK mirrors the EVM adapter's pool-occurrence threshold.
const PoolK = 2

// Adapter implements domain.ChainAdapter for Solana.
type Adapter struct {
	feed   TransferFeed
	router domain.PriceSource
	log    zerolog.Logger
}

// New builds a Solana Adapter.
func New(feed TransferFeed, router domain.PriceSource, log zerolog.Logger) *Adapter {
	return &Adapter{feed: feed, router: router, log: log.With().Str("adapter", "solana").Logger()}
}

// ChainID implements domain.ChainAdapter.
func (a *Adapter) ChainID() string { return "solana" }

// RecentTokenBuyers mirrors the EVM adapter's pool heuristic: a
// program/vault address appearing as `from` at least PoolK times is
// treated as a swap pool, and its counterparties are buyers.
func (a *Adapter) RecentTokenBuyers(tokenAddress string, limit int) ([]domain.Transfer, error) {
	transfers, err := a.feed.TokenTransfers(tokenAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("solana token transfers: %w", err)
	}

	buyPools := detectPools(transfers, poolSideFrom)
	var buys []domain.Transfer
	for _, t := range transfers {
		if buyPools[t.From] {
			buys = append(buys, t)
		}
	}
	return buys, nil
}

// RecentWalletTrades labels a wallet's transfers since a cursor as
// buy/sell using the same per-token pool heuristic as the EVM adapter.
func (a *Adapter) RecentWalletTrades(walletAddress, sinceTxHash string, limit int) ([]domain.Trade, error) {
	transfers, err := a.feed.WalletTransfers(walletAddress, sinceTxHash, limit)
	if err != nil {
		return nil, fmt.Errorf("solana wallet transfers: %w", err)
	}

	byToken := make(map[string][]domain.Transfer)
	for _, t := range transfers {
		byToken[t.Token] = append(byToken[t.Token], t)
	}

	var trades []domain.Trade
	for token, group := range byToken {
		buyPools := detectPools(group, poolSideFrom)
		sellPools := detectPools(group, poolSideTo)

		for _, t := range group {
			var side domain.Side
			switch {
			case buyPools[t.From] && t.To == walletAddress:
				side = domain.SideBuy
			case sellPools[t.To] && t.From == walletAddress:
				side = domain.SideSell
			default:
				continue
			}
			priceUSD := 0.0
			if a.router != nil {
				priceUSD, _ = a.router.Price(token, "solana")
			}
			trades = append(trades, domain.Trade{
				TxHash:    t.TxHash,
				Timestamp: t.Timestamp,
				ChainID:   "solana",
				Wallet:    walletAddress,
				Token:     token,
				Side:      side,
				QtyToken:  t.RawAmount,
				PriceUSD:  priceUSD,
				USDValue:  priceUSD * t.RawAmount,
			})
		}
	}

	sort.Slice(trades, func(i, j int) bool { return trades[i].Timestamp.Before(trades[j].Timestamp) })
	return trades, nil
}

type poolSide int

const (
	poolSideFrom poolSide = iota
	poolSideTo
)

func detectPools(transfers []domain.Transfer, side poolSide) map[string]bool {
	counts := make(map[string]int)
	for _, t := range transfers {
		addr := t.From
		if side == poolSideTo {
			addr = t.To
		}
		counts[addr]++
	}

	pools := make(map[string]bool)
	for addr, n := range counts {
		if n >= PoolK {
			pools[addr] = true
		}
	}
	return pools
}
