package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/alphawallet/internal/domain"
)

func TestWalletRepository_UpsertSeenBumpsLastActive(t *testing.T) {
	repo := NewWalletRepository(newTestDB(t), testLog())
	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	require.NoError(t, repo.UpsertSeen("ethereum", "0xwallet", false, first))

	later := first.Add(time.Minute)
	require.NoError(t, repo.UpsertSeen("ethereum", "0xwallet", false, later))

	got, err := repo.Get("ethereum", "0xwallet")
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.LastActiveAt, time.Second)
	assert.False(t, got.IsContract)
}

func TestWalletRepository_UpsertSeenIsContractIsSticky(t *testing.T) {
	repo := NewWalletRepository(newTestDB(t), testLog())
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertSeen("ethereum", "0xwallet", true, now))
	require.NoError(t, repo.UpsertSeen("ethereum", "0xwallet", false, now.Add(time.Minute)))

	got, err := repo.Get("ethereum", "0xwallet")
	require.NoError(t, err)
	assert.True(t, got.IsContract, "is_contract must never be cleared once set")
}

func TestWalletRepository_MarkBot(t *testing.T) {
	repo := NewWalletRepository(newTestDB(t), testLog())
	now := time.Now().UTC()
	require.NoError(t, repo.UpsertSeen("ethereum", "0xbot", false, now))

	require.NoError(t, repo.MarkBot("ethereum", "0xbot"))

	got, err := repo.Get("ethereum", "0xbot")
	require.NoError(t, err)
	assert.True(t, got.IsBot)
}

func TestWalletRepository_GetNotFound(t *testing.T) {
	repo := NewWalletRepository(newTestDB(t), testLog())
	_, err := repo.Get("ethereum", "0xmissing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWalletRepository_NonBotActiveSinceExcludesBotsAndStale(t *testing.T) {
	repo := NewWalletRepository(newTestDB(t), testLog())
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertSeen("ethereum", "0xactive", false, now))
	require.NoError(t, repo.UpsertSeen("ethereum", "0xstale", false, now.Add(-72*time.Hour)))
	require.NoError(t, repo.UpsertSeen("ethereum", "0xbot", false, now))
	require.NoError(t, repo.MarkBot("ethereum", "0xbot"))

	active, err := repo.NonBotActiveSince(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "0xactive", active[0].Address)
}
