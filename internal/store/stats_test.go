package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/alphawallet/internal/domain"
)

func TestWalletStatsRepository_SaveAndGet(t *testing.T) {
	repo := NewWalletStatsRepository(newTestDB(t), testLog())
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Save(domain.WalletStats30D{
		Wallet: "0xwallet", ChainID: "ethereum", TradeCount: 12,
		RealizedPnLUSD: 2500, BestTradeMultiple: 8.2, MedianEarlyScore: 0.6, LastUpdatedAt: now,
	}))

	got, err := repo.Get("0xwallet")
	require.NoError(t, err)
	assert.Equal(t, 12, got.TradeCount)
	assert.Equal(t, 8.2, got.BestTradeMultiple)
}

func TestWalletStatsRepository_SaveOverwrites(t *testing.T) {
	repo := NewWalletStatsRepository(newTestDB(t), testLog())
	now := time.Now().UTC()

	require.NoError(t, repo.Save(domain.WalletStats30D{Wallet: "0xwallet", TradeCount: 1, LastUpdatedAt: now}))
	require.NoError(t, repo.Save(domain.WalletStats30D{Wallet: "0xwallet", TradeCount: 5, LastUpdatedAt: now}))

	got, err := repo.Get("0xwallet")
	require.NoError(t, err)
	assert.Equal(t, 5, got.TradeCount)
}

func TestWalletStatsRepository_GetNotFound(t *testing.T) {
	repo := NewWalletStatsRepository(newTestDB(t), testLog())
	_, err := repo.Get("0xmissing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWalletStatsRepository_All(t *testing.T) {
	repo := NewWalletStatsRepository(newTestDB(t), testLog())
	now := time.Now().UTC()

	require.NoError(t, repo.Save(domain.WalletStats30D{Wallet: "0xa", LastUpdatedAt: now}))
	require.NoError(t, repo.Save(domain.WalletStats30D{Wallet: "0xb", LastUpdatedAt: now}))

	all, err := repo.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
