package monitor

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/alphawallet/internal/config"
	"github.com/aristath/alphawallet/internal/confluence"
	"github.com/aristath/alphawallet/internal/database"
	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/store"
)

func newTestConn(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, database.MigrateConn(conn))
	return conn
}

type fakeAdapter struct {
	chainID string
	trades  map[string][]domain.Trade // wallet -> its trades
	err     error
}

func (a *fakeAdapter) ChainID() string { return a.chainID }
func (a *fakeAdapter) RecentTokenBuyers(tokenAddress string, limit int) ([]domain.Transfer, error) {
	return nil, nil
}
func (a *fakeAdapter) RecentWalletTrades(walletAddress, sinceTxHash string, limit int) ([]domain.Trade, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.trades[walletAddress], nil
}

type fakeTrader struct {
	confluenceHits int
}

func (f *fakeTrader) OnConfluence(side domain.Side, chainID, token string, wallets []string, ts time.Time) error {
	f.confluenceHits++
	return nil
}

type fakeAlerter struct {
	alerts []domain.Alert
}

func (f *fakeAlerter) Emit(a domain.Alert) { f.alerts = append(f.alerts, a) }

func emptyMemeFilter() *config.MemeFilter {
	return &config.MemeFilter{Excluded: map[string][]string{}}
}

func TestMonitor_RunInsertsTradesAndAdvancesCursor(t *testing.T) {
	conn := newTestConn(t)
	watchlistRepo := store.NewWatchlistRepository(conn, zerolog.Nop())
	cursors := store.NewCursorRepository(conn, zerolog.Nop())
	trades := store.NewTradeRepository(conn, zerolog.Nop())

	require.NoError(t, watchlistRepo.Upsert(store.WatchlistMember{Wallet: "0xwallet", ChainID: "ethereum", IsActive: true}))

	adapter := &fakeAdapter{chainID: "ethereum", trades: map[string][]domain.Trade{
		"0xwallet": {{TxHash: "0xtx1", Timestamp: time.Now().UTC(), ChainID: "ethereum", Wallet: "0xwallet", Token: "0xtoken", Side: domain.SideBuy, USDValue: 100}},
	}}

	m := &Monitor{
		Watchlist:  watchlistRepo,
		Cursors:    cursors,
		Trades:     trades,
		Adapters:   map[string]domain.ChainAdapter{"ethereum": adapter},
		Detector:   confluence.New(30*time.Minute, zerolog.Nop()),
		Filter:     emptyMemeFilter(),
		MinWallets: 2,
		FetchLimit: 200,
		Log:        zerolog.Nop(),
	}

	require.NoError(t, m.Run(time.Now().UTC()))

	cursor, err := cursors.Get("ethereum", "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, "0xtx1", cursor)

	inserted, err := trades.ForWallet("0xwallet", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, inserted, 1)
}

func TestMonitor_PollWalletSkipsUnregisteredChain(t *testing.T) {
	conn := newTestConn(t)
	watchlistRepo := store.NewWatchlistRepository(conn, zerolog.Nop())
	cursors := store.NewCursorRepository(conn, zerolog.Nop())
	trades := store.NewTradeRepository(conn, zerolog.Nop())
	require.NoError(t, watchlistRepo.Upsert(store.WatchlistMember{Wallet: "0xwallet", ChainID: "solana", IsActive: true}))

	m := &Monitor{
		Watchlist: watchlistRepo,
		Cursors:   cursors,
		Trades:    trades,
		Adapters:  map[string]domain.ChainAdapter{},
		Detector:  confluence.New(30*time.Minute, zerolog.Nop()),
		Filter:    emptyMemeFilter(),
		Log:       zerolog.Nop(),
	}

	assert.NoError(t, m.Run(time.Now().UTC()), "an unregistered chain must be a no-op, not an error")
}

func TestMonitor_ConfluenceHitNotifiesTraderAndAlerter(t *testing.T) {
	conn := newTestConn(t)
	watchlistRepo := store.NewWatchlistRepository(conn, zerolog.Nop())
	cursors := store.NewCursorRepository(conn, zerolog.Nop())
	trades := store.NewTradeRepository(conn, zerolog.Nop())

	require.NoError(t, watchlistRepo.Upsert(store.WatchlistMember{Wallet: "0xa", ChainID: "ethereum", IsActive: true}))
	require.NoError(t, watchlistRepo.Upsert(store.WatchlistMember{Wallet: "0xb", ChainID: "ethereum", IsActive: true}))

	now := time.Now().UTC()
	adapterA := &fakeAdapter{chainID: "ethereum", trades: map[string][]domain.Trade{
		"0xa": {{TxHash: "0xtx1", Timestamp: now, ChainID: "ethereum", Wallet: "0xa", Token: "0xtoken", Side: domain.SideBuy}},
	}}

	trader := &fakeTrader{}
	alerter := &fakeAlerter{}
	detector := confluence.New(30*time.Minute, zerolog.Nop())
	detector.RecordTrade(domain.SideBuy, "ethereum", "0xtoken", "0xb", now.Add(-time.Minute), nil)

	m := &Monitor{
		Watchlist:  watchlistRepo,
		Cursors:    cursors,
		Trades:     trades,
		Adapters:   map[string]domain.ChainAdapter{"ethereum": adapterA},
		Detector:   detector,
		Filter:     emptyMemeFilter(),
		Trader:     trader,
		Alerter:    alerter,
		MinWallets: 2,
		FetchLimit: 200,
		Log:        zerolog.Nop(),
	}

	require.NoError(t, m.Run(now))

	assert.Equal(t, 1, trader.confluenceHits)
	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, domain.AlertTypeConfluence, alerter.alerts[0].Type)
}

func TestMonitor_ExcludedTokenIsNotInserted(t *testing.T) {
	conn := newTestConn(t)
	watchlistRepo := store.NewWatchlistRepository(conn, zerolog.Nop())
	cursors := store.NewCursorRepository(conn, zerolog.Nop())
	trades := store.NewTradeRepository(conn, zerolog.Nop())
	require.NoError(t, watchlistRepo.Upsert(store.WatchlistMember{Wallet: "0xwallet", ChainID: "ethereum", IsActive: true}))

	adapter := &fakeAdapter{chainID: "ethereum", trades: map[string][]domain.Trade{
		"0xwallet": {{TxHash: "0xtx1", Timestamp: time.Now().UTC(), ChainID: "ethereum", Wallet: "0xwallet", Token: "0xusdc", Side: domain.SideBuy}},
	}}

	m := &Monitor{
		Watchlist: watchlistRepo,
		Cursors:   cursors,
		Trades:    trades,
		Adapters:  map[string]domain.ChainAdapter{"ethereum": adapter},
		Detector:  confluence.New(30*time.Minute, zerolog.Nop()),
		Filter:    &config.MemeFilter{Excluded: map[string][]string{"ethereum": {"0xusdc"}}},
		Log:       zerolog.Nop(),
	}

	require.NoError(t, m.Run(time.Now().UTC()))

	inserted, err := trades.ForWallet("0xwallet", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, inserted, "excluded tokens must never be persisted as trades")

	cursor, err := cursors.Get("ethereum", "0xwallet")
	require.NoError(t, err)
	assert.Equal(t, "0xtx1", cursor, "the cursor must still advance past an excluded trade")
}
