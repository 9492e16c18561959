package priceroute

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/alphawallet/internal/domain"
)

type fakeSource struct {
	name  string
	price float64
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Price(tokenAddress, chainID string) (float64, error) {
	f.calls++
	return f.price, f.err
}

func TestRouter_PriceFallsThroughToNextSource(t *testing.T) {
	failing := &fakeSource{name: "dexscreener", err: errors.New("timeout")}
	working := &fakeSource{name: "birdeye", price: 1.5}

	rt := New([]domain.PriceSource{failing, working}, nil, nil, time.Minute, 3, zerolog.Nop())

	price, err := rt.Price("0xtoken", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, 1.5, price)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
}

func TestRouter_PriceIsCachedWithinTTL(t *testing.T) {
	src := &fakeSource{name: "dexscreener", price: 2.0}
	rt := New([]domain.PriceSource{src}, nil, nil, time.Minute, 3, zerolog.Nop())

	_, err := rt.Price("0xtoken", "ethereum")
	require.NoError(t, err)
	_, err = rt.Price("0xtoken", "ethereum")
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls, "second call within the TTL must be served from cache")
}

func TestRouter_PriceReturnsStaleAfterAllSourcesFail(t *testing.T) {
	src := &fakeSource{name: "dexscreener", err: errors.New("down")}
	rt := New([]domain.PriceSource{src}, nil, nil, time.Minute, 3, zerolog.Nop())

	_, err := rt.Price("0xtoken", "ethereum")
	assert.ErrorIs(t, err, domain.ErrPriceStale)
}

func TestRouter_SourceSkippedAfterFailCap(t *testing.T) {
	src := &fakeSource{name: "dexscreener", err: errors.New("down")}
	rt := New([]domain.PriceSource{src}, nil, nil, 0, 2, zerolog.Nop())

	rt.Price("0xtoken", "ethereum")
	rt.Price("0xtoken", "ethereum")
	rt.Price("0xtoken", "ethereum")

	assert.Equal(t, 2, src.calls, "a source must stop being called once its failure cap is reached")
}

func TestRouter_ResetFailureCountersReenablesSource(t *testing.T) {
	src := &fakeSource{name: "dexscreener", err: errors.New("down")}
	rt := New([]domain.PriceSource{src}, nil, nil, 0, 1, zerolog.Nop())

	rt.Price("0xtoken", "ethereum")
	rt.Price("0xtoken", "ethereum")
	assert.Equal(t, 1, src.calls)

	rt.ResetFailureCounters()
	rt.Price("0xtoken", "ethereum")
	assert.Equal(t, 2, src.calls)
}

func TestRouter_PriceOrLastTradeFallsBackToZeroWithoutTradeRepo(t *testing.T) {
	src := &fakeSource{name: "dexscreener", err: errors.New("down")}
	rt := New([]domain.PriceSource{src}, nil, nil, time.Minute, 3, zerolog.Nop())

	assert.Equal(t, 0.0, rt.PriceOrLastTrade("0xtoken", "ethereum"))
}

func TestRouter_FailureCountsSnapshot(t *testing.T) {
	src := &fakeSource{name: "dexscreener", err: errors.New("down")}
	rt := New([]domain.PriceSource{src}, nil, nil, time.Minute, 5, zerolog.Nop())

	rt.Price("0xtoken", "ethereum")
	rt.Price("0xtoken", "ethereum")

	counts := rt.FailureCounts()
	assert.Equal(t, 2, counts["dexscreener"])
}
