package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchlistRepository_UpsertPreservesCustomFlag(t *testing.T) {
	repo := NewWatchlistRepository(newTestDB(t), testLog())

	require.NoError(t, repo.Upsert(WatchlistMember{
		Wallet: "0xwallet", ChainID: "ethereum", IsCustom: true, IsActive: true, Label: "whale", Score: 1,
	}))
	require.NoError(t, repo.Upsert(WatchlistMember{
		Wallet: "0xwallet", ChainID: "ethereum", IsCustom: false, IsActive: true, Score: 2,
	}))

	active, err := repo.Active()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].IsCustom, "is_custom must stick once set, matching the auto-discovery merge rule")
	assert.Equal(t, "whale", active[0].Label, "blank label in the second upsert must not clobber the existing one")
	assert.Equal(t, 2.0, active[0].Score)
}

func TestWatchlistRepository_DeactivateExcludesFromActive(t *testing.T) {
	repo := NewWatchlistRepository(newTestDB(t), testLog())
	require.NoError(t, repo.Upsert(WatchlistMember{Wallet: "0xwallet", ChainID: "ethereum", IsActive: true}))

	require.NoError(t, repo.Deactivate("0xwallet"))

	active, err := repo.Active()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCustomWalletRepository_AddAndRemove(t *testing.T) {
	repo := NewCustomWalletRepository(newTestDB(t), testLog())

	require.NoError(t, repo.Add("ethereum", "0xwallet", "insider"))

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "insider", all[0].Label)
	assert.True(t, all[0].IsActive)

	require.NoError(t, repo.Remove("0xwallet"))

	all, err = repo.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive, "remove is a tombstone, not a delete")
}
