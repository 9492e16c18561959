package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceHealthRepository_FailureThenRecovery(t *testing.T) {
	repo := NewSourceHealthRepository(newTestDB(t), testLog())

	require.NoError(t, repo.RecordFailure("dexscreener", "timeout"))
	require.NoError(t, repo.RecordFailure("dexscreener", "timeout"))

	rows, err := repo.All()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].ConsecutiveFails)
	assert.Equal(t, "timeout", rows[0].LastError)
	assert.Nil(t, rows[0].LastSuccessAt)

	require.NoError(t, repo.RecordSuccess("dexscreener"))

	rows, err = repo.All()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ConsecutiveFails)
	assert.Equal(t, "", rows[0].LastError)
	assert.NotNil(t, rows[0].LastSuccessAt)
}

func TestSourceHealthRepository_ResetAll(t *testing.T) {
	repo := NewSourceHealthRepository(newTestDB(t), testLog())

	require.NoError(t, repo.RecordFailure("birdeye", "rate limited"))
	require.NoError(t, repo.RecordFailure("coingecko", "rate limited"))

	require.NoError(t, repo.ResetAll())

	rows, err := repo.All()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, 0, r.ConsecutiveFails)
	}
}
