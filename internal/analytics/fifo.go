// Package analytics is the wallet analytics engine: FIFO realized and
// unrealized P&L, the Being-Early score, the bot filter, and the
// rolling 30-day stats rollup that feeds the watchlist ranker. Every
// function here is a pure computation over Trade history plus a
// supplied mark price; nothing talks to the network.
package analytics

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// ComputeFIFO recomputes a Position from the chronologically ordered
// Trades of one (wallet, token) pair. Excess sell quantity (selling
// more than is held) is silently truncated: short-selling is not
// modeled, per the spec.
//
// trades MUST already be sorted by Timestamp ascending; callers own
// that ordering (the store layer returns trades this way).
func ComputeFIFO(trades []domain.Trade, markPrice float64, log zerolog.Logger) domain.Position {
	if len(trades) == 0 {
		return domain.Position{}
	}

	pos := domain.Position{
		Wallet:        trades[0].Wallet,
		Token:         trades[0].Token,
		ChainID:       trades[0].ChainID,
		LastMarkPrice: markPrice,
	}

	var lots []domain.Lot

	for _, t := range trades {
		switch t.Side {
		case domain.SideBuy:
			lots = append(lots, domain.Lot{
				Qty:          t.QtyToken,
				CostBasisUSD: t.USDValue + t.FeeUSD,
			})

		case domain.SideSell:
			sellProceeds := t.USDValue - t.FeeUSD
			remaining := t.QtyToken
			totalSellQty := t.QtyToken

			if totalSellQty <= 0 {
				continue
			}

			for remaining > 0 && len(lots) > 0 {
				lot := &lots[0]
				consumed := lot.Qty
				if consumed > remaining {
					consumed = remaining
				}

				consumedCostBasis := lot.CostBasisUSD * (consumed / lot.Qty)
				proceedsAllocated := sellProceeds * (consumed / totalSellQty)
				pos.RealizedPnLUSD += proceedsAllocated - consumedCostBasis

				lot.Qty -= consumed
				lot.CostBasisUSD -= consumedCostBasis
				remaining -= consumed

				if lot.Qty <= 1e-12 {
					lots = lots[1:]
				}
			}

			if remaining > 1e-9 {
				log.Warn().
					Str("wallet", t.Wallet).Str("token", t.Token).
					Float64("excess_qty", remaining).
					Msg("sell exceeded open FIFO lots, excess truncated")
			}
		}
		pos.LastUpdatedAt = t.Timestamp
	}

	for _, l := range lots {
		pos.OpenQty += l.Qty
		pos.CostBasisUSD += l.CostBasisUSD
		pos.UnrealizedPnLUSD += l.Qty*markPrice - l.CostBasisUSD
	}
	pos.OpenLots = lots
	if pos.LastUpdatedAt.IsZero() {
		pos.LastUpdatedAt = time.Now().UTC()
	}

	return pos
}

// BestTradeMultiple returns max(avg_sell_price / avg_buy_price) across
// the given trades, defined only when both a buy and a sell exist;
// defaults to 1.0 otherwise.
func BestTradeMultiple(trades []domain.Trade) float64 {
	var buyQty, buyValue, sellQty, sellValue float64
	for _, t := range trades {
		switch t.Side {
		case domain.SideBuy:
			buyQty += t.QtyToken
			buyValue += t.USDValue
		case domain.SideSell:
			sellQty += t.QtyToken
			sellValue += t.USDValue
		}
	}
	if buyQty <= 0 || sellQty <= 0 || buyValue <= 0 {
		return 1.0
	}
	avgBuy := buyValue / buyQty
	avgSell := sellValue / sellQty
	if avgBuy <= 0 {
		return 1.0
	}
	return avgSell / avgBuy
}
