package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEarlyScore_S4(t *testing.T) {
	in := EarlyScoreInputs{
		UniqueBuyersBefore: 0,
		TotalUniqueBuyers:  100,
		EstimatedMarketCap: 30_000,
		ParticipationRatio: 0.2,
	}
	assert.InDelta(t, 86.8, EarlyScore(in), 0.5)
}

func TestEarlyScore_ClampsToRange(t *testing.T) {
	assert.Equal(t, 80.0, EarlyScore(EarlyScoreInputs{}))
	assert.InDelta(t, 0.0, EarlyScore(EarlyScoreInputs{
		UniqueBuyersBefore: 100, TotalUniqueBuyers: 100,
		EstimatedMarketCap: 10_000_000, ParticipationRatio: 0,
	}), 1e-9)
}

func TestEarlyScore_ParticipationCapped(t *testing.T) {
	low := EarlyScore(EarlyScoreInputs{TotalUniqueBuyers: 1, ParticipationRatio: 0.5})
	high := EarlyScore(EarlyScoreInputs{TotalUniqueBuyers: 1, ParticipationRatio: 5.0})
	assert.Equal(t, low, high)
}

func TestEstimatedMarketCap(t *testing.T) {
	assert.Equal(t, 30_000.0, EstimatedMarketCap(10_000))
}
