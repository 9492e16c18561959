// Package monitor implements the wallet_monitoring job: poll each
// watchlisted wallet for new trades since its cursor, filter out
// stable-coin/wrapped-native noise, record them, and feed the
// confluence detector.
package monitor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/config"
	"github.com/aristath/alphawallet/internal/confluence"
	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/store"
)

// PaperTrader is the minimal capability the monitor needs from the
// paper-trading state machine: react to a confluence hit.
type PaperTrader interface {
	OnConfluence(side domain.Side, chainID, token string, wallets []string, ts time.Time) error
}

// Monitor polls every active watchlist member for new trades and
// reacts to confluence.
type Monitor struct {
	Watchlist  *store.WatchlistRepository
	Cursors    *store.CursorRepository
	Trades     *store.TradeRepository
	Adapters   map[string]domain.ChainAdapter
	Detector   *confluence.Detector
	Filter     *config.MemeFilter
	Trader     PaperTrader
	Alerter    domain.Alerter // optional; nil disables alert emission
	Health     *store.SourceHealthRepository // optional; nil disables per-adapter tracking
	MinWallets int
	FetchLimit int
	Log        zerolog.Logger
}

// Run polls every active watchlist member once.
func (m *Monitor) Run(now time.Time) error {
	members, err := m.Watchlist.Active()
	if err != nil {
		return err
	}

	for _, member := range members {
		if err := m.pollWallet(member, now); err != nil {
			m.Log.Warn().Err(err).Str("wallet", member.Wallet).Msg("wallet poll failed")
		}
	}
	m.Detector.Sweep(now)
	return nil
}

func (m *Monitor) pollWallet(member store.WatchlistMember, now time.Time) error {
	adapter, ok := m.Adapters[member.ChainID]
	if !ok {
		return nil
	}

	cursor, err := m.Cursors.Get(member.ChainID, member.Wallet)
	if err != nil {
		return err
	}

	trades, err := adapter.RecentWalletTrades(member.Wallet, cursor, m.FetchLimit)
	if err != nil {
		if m.Health != nil {
			_ = m.Health.RecordFailure(adapter.ChainID(), err.Error())
		}
		return err
	}
	if m.Health != nil {
		_ = m.Health.RecordSuccess(adapter.ChainID())
	}
	if len(trades) == 0 {
		return nil
	}

	var lastTxHash string
	for _, t := range trades {
		if m.Filter.IsExcluded(t.ChainID, t.Token) {
			lastTxHash = t.TxHash
			continue
		}

		if _, err := m.Trades.Insert(t); err != nil {
			m.Log.Warn().Err(err).Str("tx", t.TxHash).Msg("monitor trade insert failed")
			continue
		}

		m.Detector.RecordTrade(t.Side, t.ChainID, t.Token, t.Wallet, t.Timestamp, map[string]any{
			"usd_value": t.USDValue,
		})

		if wallets, ok := m.Detector.Check(t.Side, t.ChainID, t.Token, m.MinWallets, now); ok {
			addrs := make([]string, len(wallets))
			for i, w := range wallets {
				addrs[i] = w.Wallet
			}
			if m.Trader != nil {
				if err := m.Trader.OnConfluence(t.Side, t.ChainID, t.Token, addrs, now); err != nil {
					m.Log.Warn().Err(err).Str("token", t.Token).Msg("paper trader confluence reaction failed")
				}
			}
			if m.Alerter != nil {
				m.Alerter.Emit(domain.Alert{
					Timestamp: now,
					Type:      domain.AlertTypeConfluence,
					Token:     t.Token,
					ChainID:   t.ChainID,
					WalletSet: addrs,
					Payload: map[string]interface{}{
						"side":      string(t.Side),
						"wallets":   len(addrs),
						"usd_value": t.USDValue,
					},
				})
			}
		}

		lastTxHash = t.TxHash
	}

	if lastTxHash != "" {
		if err := m.Cursors.Advance(member.ChainID, member.Wallet, lastTxHash); err != nil {
			return err
		}
	}
	return nil
}
