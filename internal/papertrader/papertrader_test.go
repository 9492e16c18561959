package papertrader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tier, ok := tierFor(10)
	require.True(t, ok)
	assert.Equal(t, 0.60, tier.sizePct)

	tier, ok = tierFor(8)
	require.True(t, ok)
	assert.Equal(t, 0.50, tier.sizePct)

	tier, ok = tierFor(2)
	require.True(t, ok)
	assert.Equal(t, 0.40, tier.sizePct)

	_, ok = tierFor(1)
	assert.False(t, ok)
}

func TestEvaluateExit_TakeProfit(t *testing.T) {
	tr := &Trader{}
	pos := &OpenPosition{EntryPrice: 1, TakeProfitPct: 0.30, StopLossPct: -0.15, BoughtAt: time.Now()}
	reason, exit := tr.evaluateExit(pos, 1.30, time.Now(), false)
	assert.True(t, exit)
	assert.Equal(t, ExitTakeProfit, reason)
}

func TestEvaluateExit_StopLoss(t *testing.T) {
	tr := &Trader{}
	pos := &OpenPosition{EntryPrice: 1, TakeProfitPct: 0.30, StopLossPct: -0.15, BoughtAt: time.Now()}
	reason, exit := tr.evaluateExit(pos, 0.80, time.Now(), false)
	assert.True(t, exit)
	assert.Equal(t, ExitStopLoss, reason)
}

func TestEvaluateExit_MaxHold(t *testing.T) {
	tr := &Trader{}
	pos := &OpenPosition{EntryPrice: 1, TakeProfitPct: 0.30, StopLossPct: -0.15, BoughtAt: time.Now().Add(-25 * time.Hour)}
	reason, exit := tr.evaluateExit(pos, 1.05, time.Now(), false)
	assert.True(t, exit)
	assert.Equal(t, ExitMaxHold, reason)
}

func TestEvaluateExit_TrailingStop(t *testing.T) {
	tr := &Trader{}
	pos := &OpenPosition{EntryPrice: 1, TakeProfitPct: 10, StopLossPct: -10, BoughtAt: time.Now()}

	_, exit := tr.evaluateExit(pos, 1.20, time.Now(), false)
	assert.False(t, exit)
	require.NotNil(t, pos.PeakProfitPct)
	assert.InDelta(t, 0.20, *pos.PeakProfitPct, 1e-9)

	reason, exit := tr.evaluateExit(pos, 1.10, time.Now(), false)
	assert.True(t, exit)
	assert.Equal(t, ExitTrailingStop, reason)
}

func TestEvaluateExit_WhaleSellOff(t *testing.T) {
	tr := &Trader{}
	pos := &OpenPosition{EntryPrice: 1, TakeProfitPct: 10, StopLossPct: -10, BoughtAt: time.Now()}
	reason, exit := tr.evaluateExit(pos, 1.0, time.Now(), true)
	assert.True(t, exit)
	assert.Equal(t, ExitWhaleSellOff, reason)
}

func TestEvaluateExit_NoRuleFires(t *testing.T) {
	tr := &Trader{}
	pos := &OpenPosition{EntryPrice: 1, TakeProfitPct: 10, StopLossPct: -10, BoughtAt: time.Now()}
	_, exit := tr.evaluateExit(pos, 1.01, time.Now(), false)
	assert.False(t, exit)
}

func TestTryEnterAndExit_S6(t *testing.T) {
	tr := &Trader{
		cash:             1000,
		positions:        make(map[string]*OpenPosition),
		maxOpenPositions: 3,
	}

	now := time.Now()
	err := tr.tryEnter("ethereum", "T", []string{"W1", "W2"}, now, 0.001, 0, 0)
	require.NoError(t, err)

	require.Len(t, tr.positions, 1)
	pos := tr.positions["T"]
	assert.InDelta(t, 400, pos.CostBasisUSD, 1e-6)
	assert.InDelta(t, 0.30, pos.TakeProfitPct, 1e-9)
	assert.InDelta(t, -0.15, pos.StopLossPct, 1e-9)
	assert.InDelta(t, 600, tr.cash, 1e-6)

	err = tr.Mark(now.Add(5*time.Minute), map[string]float64{"T": 0.00130}, nil)
	require.NoError(t, err)

	assert.Empty(t, tr.positions)
	assert.InDelta(t, 1120, tr.cash, 1e-6)
	require.Len(t, tr.closed, 1)
	assert.True(t, tr.closed[0].Win)
}

func TestMark_NeverExitsOnStalePrice(t *testing.T) {
	tr := &Trader{
		cash:             600,
		positions:        map[string]*OpenPosition{"T": {Token: "T", EntryPrice: 1, TakeProfitPct: 0.1, StopLossPct: -0.1, BoughtAt: time.Now()}},
		maxOpenPositions: 3,
	}
	err := tr.Mark(time.Now(), map[string]float64{"T": 0}, nil)
	require.NoError(t, err)
	assert.Len(t, tr.positions, 1)
}

func TestTryEnter_RespectsMaxOpenPositions(t *testing.T) {
	tr := &Trader{
		cash: 1000,
		positions: map[string]*OpenPosition{
			"A": {}, "B": {}, "C": {},
		},
		maxOpenPositions: 3,
	}
	err := tr.tryEnter("ethereum", "D", []string{"W1", "W2"}, time.Now(), 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, tr.positions, 3)
}
