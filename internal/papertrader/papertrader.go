// Package papertrader simulates a portfolio that reacts to confluence
// events: it sizes and opens positions, marks them on a schedule, and
// exits under a fixed priority of rules. Nothing here touches a real
// exchange; every mutation also appends to a durable msgpack log so a
// restart replays state instead of losing it.
package papertrader

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/config"
	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/events"
	"github.com/aristath/alphawallet/internal/priceroute"
	"github.com/aristath/alphawallet/internal/store"
)

// OpenPosition is one live simulated position.
type OpenPosition struct {
	Token         string    `msgpack:"token"`
	ChainID       string    `msgpack:"chain_id"`
	Qty           float64   `msgpack:"qty"`
	EntryPrice    float64   `msgpack:"entry_price"`
	CostBasisUSD  float64   `msgpack:"cost_basis_usd"`
	BoughtAt      time.Time `msgpack:"bought_at"`
	NumWhales     int       `msgpack:"num_whales"`
	TakeProfitPct float64   `msgpack:"take_profit_pct"`
	StopLossPct   float64   `msgpack:"stop_loss_pct"`
	PeakProfitPct *float64  `msgpack:"peak_profit_pct,omitempty"`
}

// ClosedTrade is an immutable record of one completed round trip.
type ClosedTrade struct {
	Token      string    `msgpack:"token"`
	ChainID    string    `msgpack:"chain_id"`
	Qty        float64   `msgpack:"qty"`
	EntryPrice float64   `msgpack:"entry_price"`
	ExitPrice  float64   `msgpack:"exit_price"`
	BoughtAt   time.Time `msgpack:"bought_at"`
	SoldAt     time.Time `msgpack:"sold_at"`
	ProfitUSD  float64   `msgpack:"profit_usd"`
	Win        bool      `msgpack:"win"`
	BuyReason  string    `msgpack:"buy_reason"`
	SellReason string    `msgpack:"sell_reason"`
}

const (
	maxOpenPositionsDefault = 3
	minCashToEnter          = 10
)

// entryTier maps a whale count to the sizing/TP/SL schedule from the
// spec's confident tiers.
type entryTier struct {
	minWhales int
	sizePct   float64
	tpPct     float64
	slPct     float64
}

var entryTiers = []entryTier{
	{minWhales: 10, sizePct: 0.60, tpPct: 0.40, slPct: -0.15},
	{minWhales: 7, sizePct: 0.50, tpPct: 0.35, slPct: -0.15},
	{minWhales: 2, sizePct: 0.40, tpPct: 0.30, slPct: -0.15},
}

func tierFor(numWhales int) (entryTier, bool) {
	for _, t := range entryTiers {
		if numWhales >= t.minWhales {
			return t, true
		}
	}
	return entryTier{}, false
}

// ExitReason names why a position was closed.
type ExitReason string

const (
	ExitTakeProfit   ExitReason = "take_profit"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitMaxHold      ExitReason = "max_hold"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitWhaleSellOff ExitReason = "whale_exit_confluence"
)

const (
	maxHoldDuration      = 24 * time.Hour
	trailingStopArmAt    = 0.15
	trailingStopDrawdown = 0.08
	// returnEpsilon absorbs float64 rounding in the return calculation so
	// a mark exactly at the take-profit level (e.g. +30%) still exits.
	returnEpsilon = 1e-9
)

// Trader is the single owner of paper-trading state. All methods
// mutate through it; other components only submit events or query
// status, never mutate positions directly.
type Trader struct {
	cash             float64
	startingCash     float64
	positions        map[string]*OpenPosition // token -> position
	closed           []ClosedTrade
	wins             int
	losses           int
	maxOpenPositions int
	filter           *config.MemeFilter
	router           *priceroute.Router
	tokens           *store.TokenRepository
	seeds            *store.SeedTokenRepository
	log              zerolog.Logger
	durable          *DurableLog
	alerter          domain.Alerter // optional; nil disables exit alerts
	events           *events.Manager // optional; nil disables lifecycle event logging
}

// SetAlerter attaches the sink exit alerts are emitted through. Call
// before the trader starts marking positions; nil is a valid way to
// disable alerting.
func (t *Trader) SetAlerter(a domain.Alerter) { t.alerter = a }

// SetEvents attaches the lifecycle event log open/close events are
// emitted through. nil disables event logging.
func (t *Trader) SetEvents(e *events.Manager) { t.events = e }

// New builds a Trader with the given starting cash balance, replaying
// prior state from the durable log if one is supplied.
func New(startingCashUSD float64, maxOpenPositions int, filter *config.MemeFilter, router *priceroute.Router, tokens *store.TokenRepository, seeds *store.SeedTokenRepository, durable *DurableLog, log zerolog.Logger) (*Trader, error) {
	if maxOpenPositions <= 0 {
		maxOpenPositions = maxOpenPositionsDefault
	}
	t := &Trader{
		cash:             startingCashUSD,
		startingCash:     startingCashUSD,
		positions:        make(map[string]*OpenPosition),
		maxOpenPositions: maxOpenPositions,
		filter:           filter,
		router:           router,
		tokens:           tokens,
		seeds:            seeds,
		log:              log.With().Str("component", "papertrader").Logger(),
		durable:          durable,
	}
	if durable != nil {
		if err := durable.Replay(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CashBalance returns the current virtual cash balance.
func (t *Trader) CashBalance() float64 { return t.cash }

// StartingCash returns the balance the trader was seeded with.
func (t *Trader) StartingCash() float64 { return t.startingCash }

// WinLossCounts returns the raw counters backing WinRate.
func (t *Trader) WinLossCounts() (wins, losses int) { return t.wins, t.losses }

// OpenPositions returns a snapshot of every currently open position.
func (t *Trader) OpenPositions() []OpenPosition {
	out := make([]OpenPosition, 0, len(t.positions))
	for _, p := range t.positions {
		out = append(out, *p)
	}
	return out
}

// ClosedTrades returns every completed round trip, oldest first.
func (t *Trader) ClosedTrades() []ClosedTrade { return t.closed }

// WinRate returns the fraction of closed trades that were profitable,
// or 0.5 (neutral) when there is no history yet.
func (t *Trader) WinRate() float64 {
	total := t.wins + t.losses
	if total == 0 {
		return 0.5
	}
	return float64(t.wins) / float64(total)
}

// OnConfluence reacts to a confluence hit. Only buy-side confluence
// opens a position; sell-side confluence is handled as an exit rule
// during marking (see Mark), never here, so the entry preconditions
// and the sell-off rule never race within one call. Price, liquidity
// and volume are resolved internally from the price router and the
// token store so callers only need to name what happened.
func (t *Trader) OnConfluence(side domain.Side, chainID, token string, wallets []string, ts time.Time) error {
	if side != domain.SideBuy {
		return nil
	}

	priceUSD := t.router.PriceOrLastTrade(token, chainID)
	var liquidityUSD float64
	if tok, err := t.tokens.Get(chainID, token); err == nil && tok != nil {
		liquidityUSD = tok.LastLiquidityUSD
	}
	volume24hUSD, _ := t.seeds.LatestVolume24h(chainID, token)

	return t.tryEnter(chainID, token, wallets, ts, priceUSD, liquidityUSD, volume24hUSD)
}

func (t *Trader) tryEnter(chainID, token string, wallets []string, ts time.Time, priceUSD, liquidityUSD, volume24hUSD float64) error {
	if _, open := t.positions[token]; open {
		return nil
	}
	if len(t.positions) >= t.maxOpenPositions {
		return nil
	}
	if t.cash < minCashToEnter {
		return nil
	}
	if t.filter != nil {
		if t.filter.IsExcluded(chainID, token) {
			return nil
		}
		if !t.filter.InBand(priceUSD, volume24hUSD, liquidityUSD) {
			return nil
		}
	}
	if priceUSD <= 0 {
		return nil
	}

	tier, ok := tierFor(len(wallets))
	if !ok {
		return nil
	}

	sizeUSD := t.cash * tier.sizePct
	qty := sizeUSD / priceUSD

	pos := &OpenPosition{
		Token:         token,
		ChainID:       chainID,
		Qty:           qty,
		EntryPrice:    priceUSD,
		CostBasisUSD:  sizeUSD,
		BoughtAt:      ts,
		NumWhales:     len(wallets),
		TakeProfitPct: tier.tpPct,
		StopLossPct:   tier.slPct,
	}

	t.cash -= sizeUSD
	t.positions[token] = pos

	if t.events != nil {
		t.events.Emit(events.PositionOpened, "papertrader", map[string]interface{}{
			"token": token, "chain_id": chainID, "qty": qty, "entry_price": priceUSD, "whales": len(wallets),
		})
	}

	return t.appendEvent(Event{Type: EventOpen, Position: pos, Cash: t.cash})
}

// Mark evaluates every open position against the current price,
// applying the five exit rules in priority order. sellConfluence
// reports whether a sell-side whale confluence has fired for a token
// this cycle (rule 5, delegated to the caller's detector query).
func (t *Trader) Mark(now time.Time, prices map[string]float64, sellConfluence map[string]bool) error {
	for token, pos := range t.positions {
		price, ok := prices[token]
		if !ok || price <= 0 {
			// never exit on a stale mark
			continue
		}

		reason, shouldExit := t.evaluateExit(pos, price, now, sellConfluence[token])
		if !shouldExit {
			continue
		}
		if err := t.exit(token, pos, price, now, reason); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trader) evaluateExit(pos *OpenPosition, price float64, now time.Time, sellConfluence bool) (ExitReason, bool) {
	ret := (price - pos.EntryPrice) / pos.EntryPrice

	if ret >= pos.TakeProfitPct-returnEpsilon {
		return ExitTakeProfit, true
	}
	if ret <= pos.StopLossPct {
		return ExitStopLoss, true
	}
	if now.Sub(pos.BoughtAt) >= maxHoldDuration {
		return ExitMaxHold, true
	}
	if ret >= trailingStopArmAt || pos.PeakProfitPct != nil {
		if pos.PeakProfitPct == nil || ret > *pos.PeakProfitPct {
			peak := ret
			pos.PeakProfitPct = &peak
		} else if *pos.PeakProfitPct-ret >= trailingStopDrawdown {
			return ExitTrailingStop, true
		}
	}
	if sellConfluence {
		return ExitWhaleSellOff, true
	}
	return "", false
}

func (t *Trader) exit(token string, pos *OpenPosition, price float64, now time.Time, reason ExitReason) error {
	proceeds := pos.Qty * price
	profit := proceeds - pos.CostBasisUSD
	win := profit > 0

	t.cash += proceeds
	delete(t.positions, token)

	if win {
		t.wins++
	} else {
		t.losses++
	}

	closed := ClosedTrade{
		Token:      pos.Token,
		ChainID:    pos.ChainID,
		Qty:        pos.Qty,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		BoughtAt:   pos.BoughtAt,
		SoldAt:     now,
		ProfitUSD:  profit,
		Win:        win,
		BuyReason:  "confluence_buy",
		SellReason: string(reason),
	}
	t.closed = append(t.closed, closed)

	if t.alerter != nil {
		t.alerter.Emit(domain.Alert{
			Timestamp: now,
			Type:      domain.AlertTypeExit,
			Token:     pos.Token,
			ChainID:   pos.ChainID,
			Payload: map[string]interface{}{
				"win":        win,
				"profit_usd": profit,
				"reason":     string(reason),
			},
		})
	}
	if t.events != nil {
		t.events.Emit(events.PositionClosed, "papertrader", map[string]interface{}{
			"token": pos.Token, "chain_id": pos.ChainID, "profit_usd": profit, "win": win, "reason": string(reason),
		})
	}

	return t.appendEvent(Event{Type: EventClose, ClosedTrade: &closed, Cash: t.cash})
}

func (t *Trader) appendEvent(e Event) error {
	if t.durable == nil {
		return nil
	}
	if err := t.durable.Append(e); err != nil {
		t.log.Warn().Err(err).Msg("durable log append failed")
		return err
	}
	return nil
}
