// Package watchlist ranks auto-discovered wallets into the monitored
// set and runs the nightly add/remove maintenance pass.
package watchlist

import (
	"sort"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/pkg/formulas"
)

// Weights are the composite ranker's three term coefficients. They
// sum to 1.0 at the defaults and are adapted (within clip bounds) by
// the win-rate feedback loop.
type Weights struct {
	PnL        float64
	TradeCount float64
	EarlyScore float64
}

// DefaultWeights matches the spec's fixed composite score.
var DefaultWeights = Weights{PnL: 0.30, TradeCount: 0.30, EarlyScore: 0.40}

const tradeCountScale = 10
const tradeCountCap = 100

// Candidate is one wallet's stats, ready to be scored against the
// current population.
type Candidate struct {
	Wallet domain.WalletStats30D
}

// Score computes the composite rank score for one candidate given the
// unrealized P&L distribution of the whole population (for
// percentile normalization) and the ranker's current weights.
func Score(c domain.WalletStats30D, population []float64, w Weights) float64 {
	normalizedPnL := formulas.PercentileRank(c.UnrealizedPnLUSD, population) * 100
	tradeTerm := float64(c.TradeCount) * tradeCountScale
	if tradeTerm > tradeCountCap {
		tradeTerm = tradeCountCap
	}
	return w.PnL*normalizedPnL + w.TradeCount*tradeTerm + w.EarlyScore*c.MedianEarlyScore
}

// Rank scores every eligible wallet (non-bot, unrealized_pnl > minPnL,
// trades_count >= minTrades) and returns them sorted by score
// descending.
func Rank(stats []domain.WalletStats30D, isBot map[string]bool, minPnL float64, minTrades int, w Weights) []ScoredWallet {
	var eligible []domain.WalletStats30D
	var population []float64
	for _, s := range stats {
		if isBot[s.Wallet] {
			continue
		}
		if s.UnrealizedPnLUSD <= minPnL || s.TradeCount < minTrades {
			continue
		}
		eligible = append(eligible, s)
		population = append(population, s.UnrealizedPnLUSD)
	}

	scored := make([]ScoredWallet, 0, len(eligible))
	for _, s := range eligible {
		scored = append(scored, ScoredWallet{Stats: s, Score: Score(s, population, w)})
	}
	sortByScoreDesc(scored)
	return scored
}

// ScoredWallet pairs a wallet's stats with its composite rank score.
type ScoredWallet struct {
	Stats domain.WalletStats30D
	Score float64
}

func sortByScoreDesc(s []ScoredWallet) {
	sort.Slice(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}

// TopK returns the top K scored wallets, or all of them if fewer than K.
func TopK(scored []ScoredWallet, k int) []ScoredWallet {
	if k <= 0 || k >= len(scored) {
		return scored
	}
	return scored[:k]
}
