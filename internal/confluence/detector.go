// Package confluence detects independent whale agreement: N or more
// distinct wallets trading the same token on the same side within a
// short time window. It is the bridge between the wallet monitor and
// the paper trader.
package confluence

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// DefaultWindow is the lookback the detector retains entries for
// when the caller doesn't override it.
const DefaultWindow = 30 * time.Minute

// expiryGrace bounds memory: keys are swept this long after the
// window closes even if nobody calls Check again.
const expiryGrace = 10 * time.Minute

// Entry is one wallet's participation in a confluence key.
type Entry struct {
	Wallet   string
	Side     domain.Side
	ChainID  string
	Token    string
	At       time.Time
	Metadata map[string]any
}

type key struct {
	side    domain.Side
	chainID string
	token   string
}

type bucket struct {
	entries   []Entry // append order; dedup/sweep happens at read time
	lastTouch time.Time
}

// Detector is the process-wide, lock-protected keyed store described
// by the concurrency model: readers and writers share one instance,
// every operation is atomic.
type Detector struct {
	mu      sync.Mutex
	window  time.Duration
	buckets map[key]*bucket
	log     zerolog.Logger
}

// New builds a Detector with the given retention window.
func New(window time.Duration, log zerolog.Logger) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{
		window:  window,
		buckets: make(map[key]*bucket),
		log:     log.With().Str("component", "confluence").Logger(),
	}
}

// RecordTrade inserts a (wallet, side) observation for (chain, token).
// Idempotent per (wallet, ts): recording the same wallet at the same
// timestamp again is a no-op, even if metadata differs.
func (d *Detector) RecordTrade(side domain.Side, chainID, token, wallet string, ts time.Time, meta map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := key{side: side, chainID: chainID, token: token}
	b, ok := d.buckets[k]
	if !ok {
		b = &bucket{}
		d.buckets[k] = b
	}
	for _, e := range b.entries {
		if e.Wallet == wallet && e.At.Equal(ts) {
			return
		}
	}
	b.entries = append(b.entries, Entry{
		Wallet: wallet, Side: side, ChainID: chainID, Token: token, At: ts, Metadata: meta,
	})
	b.lastTouch = ts
}

// Check evaluates confluence for (side, chain, token) as of now: stale
// entries (older than the window) are dropped, remaining entries are
// deduplicated by wallet (first occurrence wins), and if the unique
// wallet count is at least minWallets the matching entries are
// returned. Returns (nil, false) otherwise.
func (d *Detector) Check(side domain.Side, chainID, token string, minWallets int, now time.Time) ([]Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := key{side: side, chainID: chainID, token: token}
	b, ok := d.buckets[k]
	if !ok {
		return nil, false
	}

	cutoff := now.Add(-d.window)
	fresh := b.entries[:0:0]
	for _, e := range b.entries {
		if e.At.Before(cutoff) {
			continue
		}
		fresh = append(fresh, e)
	}
	b.entries = fresh
	if len(fresh) == 0 {
		delete(d.buckets, k)
		return nil, false
	}

	seen := make(map[string]bool, len(fresh))
	var deduped []Entry
	for _, e := range fresh {
		if seen[e.Wallet] {
			continue
		}
		seen[e.Wallet] = true
		deduped = append(deduped, e)
	}

	if len(deduped) < minWallets {
		if len(deduped) == minWallets-1 {
			d.log.Debug().
				Str("chain", chainID).Str("token", token).Str("side", string(side)).
				Int("unique_wallets", len(deduped)).Int("min_wallets", minWallets).
				Msg("confluence near-miss")
		}
		return nil, false
	}
	return deduped, true
}

// Sweep drops keys whose most recent entry is older than window+grace,
// bounding memory for keys nobody ever queries again. Call
// periodically from the wallet-monitor job.
func (d *Detector) Sweep(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-(d.window + expiryGrace))
	removed := 0
	for k, b := range d.buckets {
		if b.lastTouch.Before(cutoff) {
			delete(d.buckets, k)
			removed++
		}
	}
	if removed > 0 {
		d.log.Debug().Int("removed", removed).Msg("swept expired confluence keys")
	}
	return removed
}
