package store

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/alphawallet/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, database.MigrateConn(conn))
	return conn
}

func testLog() zerolog.Logger {
	return zerolog.Nop()
}
