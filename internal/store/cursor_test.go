package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRepository_GetReturnsEmptyWhenUnset(t *testing.T) {
	repo := NewCursorRepository(newTestDB(t), testLog())
	cursor, err := repo.Get("ethereum", "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, "", cursor)
}

func TestCursorRepository_AdvanceThenGet(t *testing.T) {
	repo := NewCursorRepository(newTestDB(t), testLog())

	require.NoError(t, repo.Advance("ethereum", "0xwallet", "0xtx1"))
	cursor, err := repo.Get("ethereum", "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, "0xtx1", cursor)

	require.NoError(t, repo.Advance("ethereum", "0xwallet", "0xtx2"))
	cursor, err = repo.Get("ethereum", "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, "0xtx2", cursor, "advance must overwrite the previous cursor")
}
