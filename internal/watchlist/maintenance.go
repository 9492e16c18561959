package watchlist

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/events"
	"github.com/aristath/alphawallet/internal/store"
)

// Thresholds are the nightly add/remove rule set (spec §4.5, tunable
// via §6 config).
type Thresholds struct {
	TopK                  int
	AddMinTrades30d       int
	AddMinRealizedPnL     float64
	AddMinBestMultiple    float64
	RemoveIfPnLLt         float64
	RemoveIfDrawdownPctGt float64
	RemoveIfTradesLt      int
}

// Maintainer owns the nightly watchlist_maintenance job: it re-ranks
// the auto-discovered population, applies add/remove thresholds, and
// adapts the ranker's weights from the trailing win rate.
type Maintainer struct {
	Stats      *store.WalletStatsRepository
	Wallets    *store.WalletRepository
	Watchlist  *store.WatchlistRepository
	Alerts     *store.AlertRepository
	Events     *events.Manager // optional; nil disables lifecycle event logging
	Thresholds Thresholds
	Weights    Weights
	Log        zerolog.Logger
}

// Run executes one nightly pass: compute scores, activate the top-K
// plus every active custom wallet, then soft-remove auto-discovered
// wallets that now fail the remove thresholds.
func (m *Maintainer) Run(now time.Time) error {
	m.Weights = AdaptWeights(m.Weights, m.winRate(now))

	all, err := m.Stats.All()
	if err != nil {
		return err
	}

	isBot := make(map[string]bool, len(all))
	for _, s := range all {
		w, err := m.Wallets.Get(s.ChainID, s.Wallet)
		if err == nil && w != nil {
			isBot[s.Wallet] = w.IsBot
		}
	}

	ranked := Rank(all, isBot, 0, 0, m.Weights)
	top := TopK(ranked, m.Thresholds.TopK)

	statsByWallet := make(map[string]domain.WalletStats30D, len(all))
	for _, s := range all {
		statsByWallet[s.Wallet] = s
	}

	for _, sw := range top {
		s := sw.Stats
		if s.TradeCount < m.Thresholds.AddMinTrades30d ||
			s.RealizedPnLUSD < m.Thresholds.AddMinRealizedPnL ||
			s.BestTradeMultiple < m.Thresholds.AddMinBestMultiple {
			continue
		}
		if err := m.Watchlist.Upsert(store.WatchlistMember{
			Wallet: s.Wallet, ChainID: s.ChainID, IsCustom: false, IsActive: true, Score: sw.Score,
		}); err != nil {
			m.Log.Warn().Err(err).Str("wallet", s.Wallet).Msg("watchlist add failed")
			continue
		}
		if m.Events != nil {
			m.Events.Emit(events.WatchlistWalletAdded, "watchlist", map[string]interface{}{
				"wallet": s.Wallet, "chain_id": s.ChainID, "score": sw.Score,
			})
		}
	}

	active, err := m.Watchlist.Active()
	if err != nil {
		return err
	}
	for _, member := range active {
		if member.IsCustom {
			continue
		}
		s, ok := statsByWallet[member.Wallet]
		if !ok {
			continue
		}
		if m.shouldRemove(s) {
			if err := m.Watchlist.Deactivate(member.Wallet); err != nil {
				m.Log.Warn().Err(err).Str("wallet", member.Wallet).Msg("watchlist remove failed")
				continue
			}
			if m.Events != nil {
				m.Events.Emit(events.WatchlistWalletDropped, "watchlist", map[string]interface{}{
					"wallet": member.Wallet, "chain_id": member.ChainID,
				})
			}
		}
	}

	return nil
}

func (m *Maintainer) shouldRemove(s domain.WalletStats30D) bool {
	return s.RealizedPnLUSD < m.Thresholds.RemoveIfPnLLt ||
		s.MaxDrawdownPct > m.Thresholds.RemoveIfDrawdownPctGt ||
		s.TradeCount < m.Thresholds.RemoveIfTradesLt
}

// winRateWindow is the trailing lookback the weight-adaptation
// feedback loop uses, per the spec's "preceding 7 days".
const winRateWindow = 7 * 24 * time.Hour

// winRate computes the fraction of exit alerts in the trailing window
// whose payload reports a profitable outcome. Returns 0.5 (neutral)
// when there is no history to learn from.
func (m *Maintainer) winRate(now time.Time) float64 {
	recent, err := m.Alerts.Recent(500)
	if err != nil {
		return 0.5
	}

	cutoff := now.Add(-winRateWindow)
	var wins, total int
	for _, a := range recent {
		if a.Type != domain.AlertTypeExit || a.Timestamp.Before(cutoff) {
			continue
		}
		total++
		if won, ok := a.Payload["win"].(bool); ok && won {
			wins++
		}
	}
	if total == 0 {
		return 0.5
	}
	return float64(wins) / float64(total)
}

const (
	weightAdaptStep = 0.05
	lowWinRateCut   = 0.4
	highWinRateCut  = 0.6
	minWeightBound  = 0.15
	maxWeightBound  = 0.55
)

// AdaptWeights shifts weight toward EarlyScore when the trailing win
// rate is low (timing is the problem) and toward realized P&L when it
// is high (keep following proven winners), bounded so no term can
// dominate or vanish. Stateless: callers recompute from DefaultWeights
// or the previous pass's output every time, never persisting state
// across restarts.
func AdaptWeights(w Weights, winRate float64) Weights {
	switch {
	case winRate < lowWinRateCut:
		w.EarlyScore += weightAdaptStep
		w.PnL -= weightAdaptStep
	case winRate > highWinRateCut:
		w.PnL += weightAdaptStep
		w.EarlyScore -= weightAdaptStep
	default:
		return w
	}

	w.PnL = clip(w.PnL, minWeightBound, maxWeightBound)
	w.EarlyScore = clip(w.EarlyScore, minWeightBound, maxWeightBound)
	return w
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
