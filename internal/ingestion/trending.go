// Package ingestion implements the two discovery jobs that feed the
// rest of the pipeline: trending-token ingest and wallet/whale
// discovery via the chain adapters' pool heuristic.
package ingestion

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/events"
	"github.com/aristath/alphawallet/internal/store"
)

// TrendingIngestor runs the runner_seed job: for each chain, fan out
// across every registered TrendingSource, upsert the returned tokens,
// and append one SeedToken snapshot row per entry.
type TrendingIngestor struct {
	Sources map[string][]domain.TrendingSource // chainID -> sources active on that chain
	Tokens  *store.TokenRepository
	Seeds   *store.SeedTokenRepository
	Health  *store.SourceHealthRepository // optional; nil disables per-source tracking
	Events  *events.Manager               // optional; nil disables lifecycle event logging
	TopN    int
	Log     zerolog.Logger
}

// Run executes one pass across every configured chain, collapsing
// duplicate (token, source) pairs within the pass so the snapshot is
// idempotent per snapshotTS.
func (ing *TrendingIngestor) Run(chains []string, snapshotTS time.Time) error {
	if ing.Events != nil {
		ing.Events.Emit(events.IngestPassStarted, "trending", map[string]interface{}{"chains": chains})
	}
	for _, chainID := range chains {
		for _, src := range ing.Sources[chainID] {
			if err := ing.runOne(chainID, src, snapshotTS); err != nil {
				ing.Log.Warn().Err(err).Str("chain", chainID).Str("source", src.Name()).Msg("trending ingest failed")
			}
		}
	}
	if ing.Events != nil {
		ing.Events.Emit(events.IngestPassCompleted, "trending", map[string]interface{}{"chains": chains})
	}
	return nil
}

func (ing *TrendingIngestor) runOne(chainID string, src domain.TrendingSource, snapshotTS time.Time) error {
	entries, err := src.TopN(chainID, ing.TopN)
	if err != nil {
		if ing.Health != nil {
			_ = ing.Health.RecordFailure(src.Name(), err.Error())
		}
		if ing.Events != nil {
			ing.Events.Emit(events.SourceDegraded, "trending", map[string]interface{}{"source": src.Name(), "error": err.Error()})
		}
		return err
	}
	if ing.Health != nil {
		_ = ing.Health.RecordSuccess(src.Name())
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.TokenAddress] {
			continue
		}
		seen[e.TokenAddress] = true

		if err := ing.Tokens.Upsert(domain.Token{
			Address:          e.TokenAddress,
			ChainID:          chainID,
			Symbol:           e.Symbol,
			FirstSeenAt:      snapshotTS,
			LastPriceUSD:     e.PriceUSD,
			LastLiquidityUSD: e.LiquidityUSD,
			UpdatedAt:        snapshotTS,
		}); err != nil {
			ing.Log.Warn().Err(err).Str("token", e.TokenAddress).Msg("token upsert failed")
			continue
		}

		if err := ing.Seeds.Append(domain.SeedToken{
			TokenAddress: e.TokenAddress,
			ChainID:      chainID,
			Source:       src.Name(),
			SnapshotTS:   snapshotTS,
			Rank:         e.Rank,
			Volume24h:    e.Volume24h,
			Change24hPct: e.Change24hPct,
		}); err != nil {
			ing.Log.Warn().Err(err).Str("token", e.TokenAddress).Msg("seed token append failed")
		}
	}
	return nil
}
