package watchlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/alphawallet/internal/domain"
)

func TestRank_FiltersBotsAndThresholds(t *testing.T) {
	stats := []domain.WalletStats30D{
		{Wallet: "bot", UnrealizedPnLUSD: 1000, TradeCount: 10, MedianEarlyScore: 80},
		{Wallet: "lowpnl", UnrealizedPnLUSD: 10, TradeCount: 10, MedianEarlyScore: 80},
		{Wallet: "good", UnrealizedPnLUSD: 1000, TradeCount: 10, MedianEarlyScore: 80},
	}
	isBot := map[string]bool{"bot": true}

	ranked := Rank(stats, isBot, 500, 2, DefaultWeights)
	if assert.Len(t, ranked, 1) {
		assert.Equal(t, "good", ranked[0].Stats.Wallet)
	}
}

func TestRank_OrdersByScoreDescending(t *testing.T) {
	stats := []domain.WalletStats30D{
		{Wallet: "low", UnrealizedPnLUSD: 600, TradeCount: 2, MedianEarlyScore: 10},
		{Wallet: "high", UnrealizedPnLUSD: 5000, TradeCount: 50, MedianEarlyScore: 90},
	}
	ranked := Rank(stats, nil, 500, 2, DefaultWeights)
	if assert.Len(t, ranked, 2) {
		assert.Equal(t, "high", ranked[0].Stats.Wallet)
	}
}

func TestTopK(t *testing.T) {
	scored := []ScoredWallet{{Score: 3}, {Score: 2}, {Score: 1}}
	assert.Len(t, TopK(scored, 2), 2)
	assert.Len(t, TopK(scored, 0), 3)
	assert.Len(t, TopK(scored, 100), 3)
}

func TestAdaptWeights_LowWinRateShiftsToEarlyScore(t *testing.T) {
	w := AdaptWeights(DefaultWeights, 0.1)
	assert.Greater(t, w.EarlyScore, DefaultWeights.EarlyScore)
	assert.Less(t, w.PnL, DefaultWeights.PnL)
}

func TestAdaptWeights_HighWinRateShiftsToPnL(t *testing.T) {
	w := AdaptWeights(DefaultWeights, 0.9)
	assert.Greater(t, w.PnL, DefaultWeights.PnL)
	assert.Less(t, w.EarlyScore, DefaultWeights.EarlyScore)
}

func TestAdaptWeights_NeutralUnchanged(t *testing.T) {
	w := AdaptWeights(DefaultWeights, 0.5)
	assert.Equal(t, DefaultWeights, w)
}

func TestAdaptWeights_Bounded(t *testing.T) {
	w := DefaultWeights
	for i := 0; i < 20; i++ {
		w = AdaptWeights(w, 0.1)
	}
	assert.GreaterOrEqual(t, w.PnL, minWeightBound)
	assert.LessOrEqual(t, w.EarlyScore, maxWeightBound)
}
