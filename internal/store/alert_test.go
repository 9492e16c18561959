package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/alphawallet/internal/domain"
)

func TestAlertRepository_InsertAssignsIDAndRoundTripsPayload(t *testing.T) {
	repo := NewAlertRepository(newTestDB(t), testLog())

	a := domain.Alert{
		Timestamp: time.Now().UTC(),
		Type:      domain.AlertTypeConfluence,
		Token:     "0xtoken",
		ChainID:   "ethereum",
		WalletSet: []string{"0xa", "0xb"},
		Payload:   map[string]interface{}{"side": "buy"},
	}

	saved, err := repo.Insert(a)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	recent, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.AlertTypeConfluence, recent[0].Type)
	assert.Equal(t, []string{"0xa", "0xb"}, recent[0].WalletSet)
	assert.Equal(t, "buy", recent[0].Payload["side"])
}

func TestAlertRepository_RecentOrdersNewestFirst(t *testing.T) {
	repo := NewAlertRepository(newTestDB(t), testLog())
	now := time.Now().UTC()

	_, err := repo.Insert(domain.Alert{Timestamp: now.Add(-time.Minute), Type: domain.AlertTypeSingle, Token: "0xa", ChainID: "ethereum"})
	require.NoError(t, err)
	second, err := repo.Insert(domain.Alert{Timestamp: now, Type: domain.AlertTypeSingle, Token: "0xb", ChainID: "ethereum"})
	require.NoError(t, err)

	recent, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)
}
