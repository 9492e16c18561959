package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/alphawallet/internal/domain"
)

func TestTokenRepository_UpsertPreservesFirstSeenAt(t *testing.T) {
	repo := NewTokenRepository(newTestDB(t), testLog())
	firstSeen := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)

	require.NoError(t, repo.Upsert(domain.Token{
		Address: "0xabc", ChainID: "ethereum", Symbol: "ABC",
		FirstSeenAt: firstSeen, LastPriceUSD: 1.0, UpdatedAt: firstSeen,
	}))

	later := firstSeen.Add(time.Hour)
	require.NoError(t, repo.Upsert(domain.Token{
		Address: "0xabc", ChainID: "ethereum", Symbol: "ABC2",
		FirstSeenAt: later, LastPriceUSD: 2.0, UpdatedAt: later,
	}))

	got, err := repo.Get("ethereum", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "ABC2", got.Symbol)
	assert.Equal(t, 2.0, got.LastPriceUSD)
	assert.WithinDuration(t, firstSeen, got.FirstSeenAt, time.Second)
}

func TestTokenRepository_GetNotFound(t *testing.T) {
	repo := NewTokenRepository(newTestDB(t), testLog())
	_, err := repo.Get("ethereum", "0xmissing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
