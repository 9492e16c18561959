package confluence

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/alphawallet/internal/domain"
)

func TestDetector_S5_ThresholdWithDedup(t *testing.T) {
	now := time.Now().UTC()
	d := New(DefaultWindow, zerolog.Nop())

	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W1", now.Add(-5*time.Minute), nil)
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W1", now.Add(-3*time.Minute), nil)
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W2", now.Add(-1*time.Minute), nil)

	entries, ok := d.Check(domain.SideBuy, "ethereum", "T", 2, now)
	assert.True(t, ok)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "W1", entries[0].Wallet)
		assert.Equal(t, "W2", entries[1].Wallet)
	}
}

func TestDetector_BelowThreshold(t *testing.T) {
	now := time.Now().UTC()
	d := New(DefaultWindow, zerolog.Nop())
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W1", now, nil)

	_, ok := d.Check(domain.SideBuy, "ethereum", "T", 2, now)
	assert.False(t, ok)
}

func TestDetector_StaleEntriesDropped(t *testing.T) {
	now := time.Now().UTC()
	d := New(10*time.Minute, zerolog.Nop())
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W1", now.Add(-20*time.Minute), nil)
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W2", now, nil)

	_, ok := d.Check(domain.SideBuy, "ethereum", "T", 2, now)
	assert.False(t, ok)
}

func TestDetector_RecordTradeIdempotentPerWalletAndTimestamp(t *testing.T) {
	now := time.Now().UTC()
	d := New(DefaultWindow, zerolog.Nop())
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W1", now, map[string]any{"a": 1})
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W1", now, map[string]any{"a": 2})

	b := d.buckets[key{side: domain.SideBuy, chainID: "ethereum", token: "T"}]
	assert.Len(t, b.entries, 1)
}

func TestDetector_Sweep(t *testing.T) {
	now := time.Now().UTC()
	d := New(1*time.Minute, zerolog.Nop())
	d.RecordTrade(domain.SideBuy, "ethereum", "T", "W1", now.Add(-20*time.Minute), nil)

	removed := d.Sweep(now)
	assert.Equal(t, 1, removed)
}
