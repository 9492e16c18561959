package analytics

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/priceroute"
	"github.com/aristath/alphawallet/internal/store"
	"github.com/aristath/alphawallet/pkg/formulas"
)

// Rollup30DWindow is the lookback the stats_rollup job uses for every
// wallet's FIFO, EarlyScore, bot-filter and drawdown computation.
const Rollup30DWindow = 30 * 24 * time.Hour

// Rollup recomputes one wallet's rolling 30-day Position-per-token set
// and its WalletStats30D summary. It is the single entry point the
// stats_rollup job calls per non-bot wallet.
type Rollup struct {
	Trades     *store.TradeRepository
	Tokens     *store.TokenRepository
	EarlyScore *EarlyScoreResolver
	Router     *priceroute.Router
	Log        zerolog.Logger
}

// Compute returns the per-token Positions and the aggregated
// WalletStats30D for wallet, using trades within the rolling window
// ending at now.
func (r *Rollup) Compute(wallet, chainID string, now time.Time) ([]domain.Position, domain.WalletStats30D, error) {
	since := now.Add(-Rollup30DWindow)
	trades, err := r.Trades.ForWallet(wallet, since)
	if err != nil {
		return nil, domain.WalletStats30D{}, err
	}

	stats := domain.WalletStats30D{
		Wallet:        wallet,
		ChainID:       chainID,
		TradeCount:    len(trades),
		LastUpdatedAt: now,
	}
	if len(trades) == 0 {
		stats.BestTradeMultiple = 1.0
		return nil, stats, nil
	}

	byToken := make(map[string][]domain.Trade)
	for _, t := range trades {
		byToken[t.Token] = append(byToken[t.Token], t)
	}

	var positions []domain.Position
	var earlyScores []float64
	liquidityByToken := make(map[string]float64)

	for token, group := range byToken {
		sort.Slice(group, func(i, j int) bool { return group[i].Timestamp.Before(group[j].Timestamp) })

		mark := r.Router.PriceOrLastTrade(token, chainID)
		pos := ComputeFIFO(group, mark, r.Log)
		positions = append(positions, pos)

		stats.RealizedPnLUSD += pos.RealizedPnLUSD
		stats.UnrealizedPnLUSD += pos.UnrealizedPnLUSD

		if m := BestTradeMultiple(group); m > stats.BestTradeMultiple {
			stats.BestTradeMultiple = m
		}

		tok, err := r.Tokens.Get(chainID, token)
		if err == nil && tok != nil {
			liquidityByToken[token] = tok.LastLiquidityUSD
		}
	}

	// trades is already ordered by ts ASC (ForWallet), so the running
	// P&L walk below reflects the wallet's true chronological equity
	// curve across every token, not per-token map iteration order.
	var equityCurve []float64
	var runningPnL float64
	for _, t := range trades {
		if t.Side == domain.SideBuy {
			in, err := r.EarlyScore.Resolve(t, liquidityByToken[t.Token])
			if err != nil {
				r.Log.Warn().Err(err).Str("wallet", wallet).Str("token", t.Token).Msg("early score resolve failed")
			} else {
				earlyScores = append(earlyScores, EarlyScore(in))
			}
			runningPnL -= t.USDValue
		} else {
			runningPnL += t.USDValue
		}
		equityCurve = append(equityCurve, runningPnL)
	}

	if stats.BestTradeMultiple == 0 {
		stats.BestTradeMultiple = 1.0
	}
	stats.MedianEarlyScore = formulas.Median(earlyScores)
	if dd := formulas.CalculateMaxDrawdown(equityCurve); dd != nil {
		stats.MaxDrawdownPct = *dd * 100
	}

	return positions, stats, nil
}
