// Package priceroute fans a single price_of(token, chain) operation
// out across multiple PriceSource implementations in a fixed
// preference order, with per-source failure budgets and a short-TTL
// cache so a single stats-rollup pass does not hammer upstream.
package priceroute

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/store"
)

// cacheEntry mirrors the (value, inserted_at) pair described for the
// process-wide price cache.
type cacheEntry struct {
	price    float64
	insertAt time.Time
}

// Router is the single owner of the price cache and per-source
// failure counters. It is safe for concurrent use.
type Router struct {
	mu      sync.Mutex
	cache   map[string]cacheEntry
	fails   map[string]int
	sources []domain.PriceSource

	ttl        time.Duration
	failCap    int
	trades     *store.TradeRepository
	health     *store.SourceHealthRepository
	log        zerolog.Logger
}

// New builds a Router trying sources in the given order.
func New(sources []domain.PriceSource, trades *store.TradeRepository, health *store.SourceHealthRepository, ttl time.Duration, failCap int, log zerolog.Logger) *Router {
	return &Router{
		cache:   make(map[string]cacheEntry),
		fails:   make(map[string]int),
		sources: sources,
		ttl:     ttl,
		failCap: failCap,
		trades:  trades,
		health:  health,
		log:     log.With().Str("component", "price_router").Logger(),
	}
}

func cacheKey(tokenAddress, chainID string) string { return chainID + ":" + tokenAddress }

// Price returns the current USD price for a token. On total source
// exhaustion it returns (0, domain.ErrPriceStale) and the caller must
// fall back to the last known trade price — this function itself
// never does that fallback so the stale signal is observable by
// upstream callers that care (e.g. the paper trader).
func (rt *Router) Price(tokenAddress, chainID string) (float64, error) {
	key := cacheKey(tokenAddress, chainID)

	rt.mu.Lock()
	if entry, ok := rt.cache[key]; ok && time.Since(entry.insertAt) < rt.ttl {
		rt.mu.Unlock()
		return entry.price, nil
	}
	rt.mu.Unlock()

	for _, src := range rt.sources {
		rt.mu.Lock()
		skip := rt.fails[src.Name()] >= rt.failCap
		rt.mu.Unlock()
		if skip {
			continue
		}

		price, err := src.Price(tokenAddress, chainID)
		if err != nil || price <= 0 {
			rt.mu.Lock()
			rt.fails[src.Name()]++
			rt.mu.Unlock()
			if rt.health != nil {
				msg := ""
				if err != nil {
					msg = err.Error()
				}
				_ = rt.health.RecordFailure(src.Name(), msg)
			}
			rt.log.Debug().Str("source", src.Name()).Err(err).Msg("price source failed")
			continue
		}

		rt.mu.Lock()
		rt.fails[src.Name()] = 0
		rt.cache[key] = cacheEntry{price: price, insertAt: time.Now()}
		rt.mu.Unlock()
		if rt.health != nil {
			_ = rt.health.RecordSuccess(src.Name())
		}
		return price, nil
	}

	return 0, domain.ErrPriceStale
}

// PriceOrLastTrade applies the required fallback: on stale price, use
// the most recent trade price for the token; never crash, never
// return a negative or undefined value.
func (rt *Router) PriceOrLastTrade(tokenAddress, chainID string) float64 {
	price, err := rt.Price(tokenAddress, chainID)
	if err == nil {
		return price
	}
	if rt.trades == nil {
		return 0
	}
	last, lerr := rt.trades.LatestPrice(chainID, tokenAddress)
	if lerr != nil {
		return 0
	}
	return last
}

// ResetFailureCounters zeroes every source's failure counter. The
// scheduler calls it every PRICE_FAIL_RESET_PERIOD (hourly by default)
// so a degraded source can recover.
func (rt *Router) ResetFailureCounters() {
	rt.mu.Lock()
	for k := range rt.fails {
		rt.fails[k] = 0
	}
	rt.mu.Unlock()
	if rt.health != nil {
		_ = rt.health.ResetAll()
	}
}

// FailureCounts returns a snapshot of per-source failure counts, for
// the /health endpoint.
func (rt *Router) FailureCounts() map[string]int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make(map[string]int, len(rt.fails))
	for k, v := range rt.fails {
		out[k] = v
	}
	return out
}
