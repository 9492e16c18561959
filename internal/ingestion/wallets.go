package ingestion

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/store"
)

// DefaultSeedLookback is the trending-snapshot horizon wallet
// discovery scans for candidate tokens.
const DefaultSeedLookback = 24 * time.Hour

// WhaleMinUSDValue is the per-transfer USD floor whale discovery
// applies on top of ordinary wallet discovery.
const WhaleMinUSDValue = 10_000

// WalletDiscovery pages recent buyers of recently trending tokens via
// the chain adapters and records them as Wallets/Trades.
type WalletDiscovery struct {
	Adapters map[string]domain.ChainAdapter // chainID -> adapter
	Seeds    *store.SeedTokenRepository
	Wallets  *store.WalletRepository
	Trades   *store.TradeRepository
	Health   *store.SourceHealthRepository // optional; nil disables per-adapter tracking
	Limit    int
	Log      zerolog.Logger
}

// Run scans every (chain, token) pair seen in a SeedToken snapshot
// within the lookback window and records newly detected buyers.
func (d *WalletDiscovery) Run(now time.Time) error {
	pairs, err := d.Seeds.RecentTokens(now.Add(-DefaultSeedLookback))
	if err != nil {
		return err
	}
	for _, p := range pairs {
		adapter, ok := d.Adapters[p.ChainID]
		if !ok {
			continue
		}
		if err := d.discoverToken(adapter, p.ChainID, p.TokenAddress, now); err != nil {
			d.Log.Warn().Err(err).Str("chain", p.ChainID).Str("token", p.TokenAddress).Msg("wallet discovery failed")
		}
	}
	return nil
}

func (d *WalletDiscovery) recordSuccess(adapter domain.ChainAdapter) {
	if d.Health != nil {
		_ = d.Health.RecordSuccess(adapter.ChainID())
	}
}

func (d *WalletDiscovery) recordFailure(adapter domain.ChainAdapter, err error) {
	if d.Health != nil {
		_ = d.Health.RecordFailure(adapter.ChainID(), err.Error())
	}
}

func (d *WalletDiscovery) discoverToken(adapter domain.ChainAdapter, chainID, token string, now time.Time) error {
	buyers, err := adapter.RecentTokenBuyers(token, d.Limit)
	if err != nil {
		d.recordFailure(adapter, err)
		return err
	}
	d.recordSuccess(adapter)

	seen := make(map[string]bool, len(buyers))
	for _, t := range buyers {
		if seen[t.To] {
			continue
		}
		seen[t.To] = true

		if err := d.Wallets.UpsertSeen(chainID, t.To, false, now); err != nil {
			d.Log.Warn().Err(err).Str("wallet", t.To).Msg("wallet upsert failed")
			continue
		}

		trades, err := adapter.RecentWalletTrades(t.To, "", d.Limit)
		if err != nil {
			d.recordFailure(adapter, err)
			d.Log.Warn().Err(err).Str("wallet", t.To).Msg("wallet trade fetch failed")
			continue
		}
		d.recordSuccess(adapter)
		for _, tr := range trades {
			if _, err := d.Trades.Insert(tr); err != nil {
				d.Log.Warn().Err(err).Str("tx", tr.TxHash).Msg("trade insert failed")
			}
		}
	}
	return nil
}

// WhaleDiscovery runs the same pool-heuristic scan but restricted to
// high-liquidity trending tokens, over a larger page size, and only
// records transfers at or above WhaleMinUSDValue.
type WhaleDiscovery struct {
	Adapters        map[string]domain.ChainAdapter
	Seeds           *store.SeedTokenRepository
	Wallets         *store.WalletRepository
	Trades          *store.TradeRepository
	Health          *store.SourceHealthRepository // optional; nil disables per-adapter tracking
	Limit           int
	MinVolume24hUSD float64
	Log             zerolog.Logger
}

// Run scans high-volume trending tokens and records whale-sized trades.
func (d *WhaleDiscovery) Run(now time.Time) error {
	pairs, err := d.Seeds.RecentHighLiquidity(now.Add(-DefaultSeedLookback), d.MinVolume24hUSD)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		adapter, ok := d.Adapters[p.ChainID]
		if !ok {
			continue
		}
		if err := d.discoverWhales(adapter, p.ChainID, p.TokenAddress, now); err != nil {
			d.Log.Warn().Err(err).Str("chain", p.ChainID).Str("token", p.TokenAddress).Msg("whale discovery failed")
		}
	}
	return nil
}

func (d *WhaleDiscovery) discoverWhales(adapter domain.ChainAdapter, chainID, token string, now time.Time) error {
	buyers, err := adapter.RecentTokenBuyers(token, d.Limit)
	if err != nil {
		if d.Health != nil {
			_ = d.Health.RecordFailure(adapter.ChainID(), err.Error())
		}
		return err
	}
	if d.Health != nil {
		_ = d.Health.RecordSuccess(adapter.ChainID())
	}

	seen := make(map[string]bool, len(buyers))
	for _, b := range buyers {
		if seen[b.To] {
			continue
		}
		seen[b.To] = true

		trades, err := adapter.RecentWalletTrades(b.To, "", d.Limit)
		if err != nil {
			if d.Health != nil {
				_ = d.Health.RecordFailure(adapter.ChainID(), err.Error())
			}
			d.Log.Warn().Err(err).Str("wallet", b.To).Msg("whale wallet trade fetch failed")
			continue
		}
		if d.Health != nil {
			_ = d.Health.RecordSuccess(adapter.ChainID())
		}
		for _, tr := range trades {
			if tr.USDValue < WhaleMinUSDValue {
				continue
			}
			if err := d.Wallets.UpsertSeen(chainID, tr.Wallet, false, now); err != nil {
				d.Log.Warn().Err(err).Str("wallet", tr.Wallet).Msg("whale wallet upsert failed")
				continue
			}
			if _, err := d.Trades.Insert(tr); err != nil {
				d.Log.Warn().Err(err).Str("tx", tr.TxHash).Msg("whale trade insert failed")
			}
		}
	}
	return nil
}
