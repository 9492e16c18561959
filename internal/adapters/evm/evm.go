// Package evm implements domain.ChainAdapter for EVM-compatible
// chains. The concrete JSON-RPC wire format is out of scope; this
// adapter assumes an underlying transfer feed and focuses on the
// pool heuristic that turns raw transfers into labeled trades.
package evm

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// TransferFeed is the minimal capability this adapter needs from a
// concrete EVM client: a window of raw token transfers. Implementers
// of the actual JSON-RPC/log-scanning side satisfy this narrow
// interface; the pool heuristic itself needs nothing more.
type TransferFeed interface {
	TokenTransfers(tokenAddress string, limit int) ([]domain.Transfer, error)
	WalletTransfers(walletAddress string, sinceTxHash string, limit int) ([]domain.Transfer, error)
}

// PoolK is the minimum number of times an address must appear on one
// side of transfers within a window before it is treated as a DEX
// pool, per the spec's swap-direction heuristic.
const PoolK = 2

// Adapter implements domain.ChainAdapter for one EVM chain.
type Adapter struct {
	chainID string
	feed    TransferFeed
	router  domain.PriceSource
	log     zerolog.Logger
}

// New builds an EVM Adapter.
func New(chainID string, feed TransferFeed, router domain.PriceSource, log zerolog.Logger) *Adapter {
	return &Adapter{
		chainID: chainID,
		feed:    feed,
		router:  router,
		log:     log.With().Str("adapter", "evm").Str("chain", chainID).Logger(),
	}
}

// ChainID implements domain.ChainAdapter.
func (a *Adapter) ChainID() string { return a.chainID }

// RecentTokenBuyers pages recent transfers for a token and applies the
// pool heuristic to find buyer wallets: an address is a detected
// buy-side pool if it appears as `from` at least PoolK times in the
// window; the corresponding `to` address is the buyer.
func (a *Adapter) RecentTokenBuyers(tokenAddress string, limit int) ([]domain.Transfer, error) {
	transfers, err := a.feed.TokenTransfers(tokenAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("evm token transfers: %w", err)
	}

	buyPools := detectPools(transfers, poolSideFrom)

	var buys []domain.Transfer
	for _, t := range transfers {
		if !buyPools[normalizeAddr(t.From)] {
			continue
		}
		if !isValidAddress(t.To) {
			continue
		}
		buys = append(buys, t)
	}
	return buys, nil
}

// RecentWalletTrades pages a wallet's transfers since a cursor and
// labels each as buy/sell via the same pool heuristic, applied per
// token so a wallet trading multiple tokens is handled correctly.
func (a *Adapter) RecentWalletTrades(walletAddress, sinceTxHash string, limit int) ([]domain.Trade, error) {
	transfers, err := a.feed.WalletTransfers(walletAddress, sinceTxHash, limit)
	if err != nil {
		return nil, fmt.Errorf("evm wallet transfers: %w", err)
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
			side, ok := classify(t, walletAddress, buyPools, sellPools)
			if !ok {
				continue
			}
			priceUSD := 0.0
			if a.router != nil {
				priceUSD, _ = a.router.Price(token, a.chainID)
			}
			trades = append(trades, domain.Trade{
				TxHash:    t.TxHash,
				Timestamp: t.Timestamp,
				ChainID:   a.chainID,
				Wallet:    normalizeAddr(walletAddress),
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

// detectPools counts occurrences of each address on the given side
// across a window of transfers and returns the set of addresses
// appearing at least PoolK times — the local, window-scoped DEX pool
// classification described by the spec. It intentionally does not
// consult any external router registry.
func detectPools(transfers []domain.Transfer, side poolSide) map[string]bool {
	counts := make(map[string]int)
	for _, t := range transfers {
		addr := t.From
		if side == poolSideTo {
			addr = t.To
		}
		counts[normalizeAddr(addr)]++
	}

	pools := make(map[string]bool)
	for addr, n := range counts {
		if n >= PoolK {
			pools[addr] = true
		}
	}
	return pools
}

// classify labels one transfer as buy/sell for a given wallet using
// the detected pool sets, or reports ok=false for a plain P2P transfer
// that should be ignored.
func classify(t domain.Transfer, wallet string, buyPools, sellPools map[string]bool) (domain.Side, bool) {
	w := normalizeAddr(wallet)
	switch {
	case buyPools[normalizeAddr(t.From)] && normalizeAddr(t.To) == w:
		return domain.SideBuy, true
	case sellPools[normalizeAddr(t.To)] && normalizeAddr(t.From) == w:
		return domain.SideSell, true
	default:
		return "", false
	}
}

func normalizeAddr(addr string) string {
	if !common.IsHexAddress(addr) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}

func isValidAddress(addr string) bool {
	return common.IsHexAddress(addr)
}
