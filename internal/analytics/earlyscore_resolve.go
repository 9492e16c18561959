package analytics

import (
	"time"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/store"
)

const participationWindow = time.Hour

// EarlyScoreResolver fetches everything EarlyScore needs from storage
// for one buy trade, keeping the store dependency out of the pure
// formula in earlyscore.go.
type EarlyScoreResolver struct {
	SeedTokens *store.SeedTokenRepository
	Trades     *store.TradeRepository
}

// Resolve builds EarlyScoreInputs for a single buy trade of a token
// whose last known liquidity is liquidityUSD.
func (r *EarlyScoreResolver) Resolve(t domain.Trade, liquidityUSD float64) (EarlyScoreInputs, error) {
	before, err := r.SeedTokens.UniqueBuyersBefore(t.ChainID, t.Token, t.Timestamp)
	if err != nil {
		return EarlyScoreInputs{}, err
	}
	total, err := r.SeedTokens.TotalUniqueBuyers(t.ChainID, t.Token)
	if err != nil {
		return EarlyScoreInputs{}, err
	}

	window, err := r.Trades.AroundTimestamp(t.ChainID, t.Token, t.Timestamp, participationWindow)
	if err != nil {
		return EarlyScoreInputs{}, err
	}
	var windowVolume float64
	for _, w := range window {
		windowVolume += w.USDValue
	}
	participation := 0.0
	if windowVolume > 0 {
		participation = t.USDValue / windowVolume
	}

	return EarlyScoreInputs{
		UniqueBuyersBefore: before,
		TotalUniqueBuyers:  total,
		EstimatedMarketCap: EstimatedMarketCap(liquidityUSD),
		ParticipationRatio: participation,
	}, nil
}
