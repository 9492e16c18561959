// Package database wraps the pure-Go sqlite driver used for the
// entities store. WAL mode is enabled via connection-string pragmas,
// matching the teacher's approach to concurrency.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no cgo
)

// DB wraps a database connection.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if needed) the sqlite database at dbPath.
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Begin starts a new transaction.
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Migrate creates every table the entity store needs if it does not
// already exist. There is no version history: the schema is additive
// and idempotent, so re-running Migrate on an existing database is safe.
func (db *DB) Migrate() error {
	return MigrateConn(db.conn)
}

// MigrateConn applies the entity schema to any open connection,
// letting tests migrate an in-memory database without going through
// New's on-disk file handling.
func MigrateConn(conn *sql.DB) error {
	for _, stmt := range entitySchema {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var entitySchema = []string{
	`CREATE TABLE IF NOT EXISTS tokens (
		address            TEXT NOT NULL,
		chain_id           TEXT NOT NULL,
		symbol             TEXT NOT NULL DEFAULT '',
		first_seen_at      DATETIME NOT NULL,
		last_price_usd     REAL NOT NULL DEFAULT 0,
		last_liquidity_usd REAL NOT NULL DEFAULT 0,
		is_honeypot        BOOLEAN NOT NULL DEFAULT 0,
		buy_tax_pct        REAL NOT NULL DEFAULT 0,
		sell_tax_pct       REAL NOT NULL DEFAULT 0,
		updated_at         DATETIME NOT NULL,
		PRIMARY KEY (chain_id, address)
	)`,
	`CREATE TABLE IF NOT EXISTS seed_tokens (
		id             TEXT PRIMARY KEY,
		token_address  TEXT NOT NULL,
		chain_id       TEXT NOT NULL,
		source         TEXT NOT NULL,
		snapshot_ts    DATETIME NOT NULL,
		rank           INTEGER NOT NULL,
		volume_24h     REAL NOT NULL DEFAULT 0,
		change_24h_pct REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_seed_tokens_snapshot ON seed_tokens (chain_id, token_address, snapshot_ts)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		address        TEXT NOT NULL,
		chain_id       TEXT NOT NULL,
		discovered_at  DATETIME NOT NULL,
		last_active_at DATETIME NOT NULL,
		is_contract    BOOLEAN NOT NULL DEFAULT 0,
		is_bot         BOOLEAN NOT NULL DEFAULT 0,
		PRIMARY KEY (chain_id, address)
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		tx_hash    TEXT PRIMARY KEY,
		ts         DATETIME NOT NULL,
		chain_id   TEXT NOT NULL,
		wallet     TEXT NOT NULL,
		token      TEXT NOT NULL,
		side       TEXT NOT NULL,
		qty_token  REAL NOT NULL,
		price_usd  REAL NOT NULL,
		usd_value  REAL NOT NULL,
		fee_usd    REAL NOT NULL DEFAULT 0,
		venue      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_wallet_token_ts ON trades (wallet, token, ts)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_token_ts ON trades (chain_id, token, ts)`,
	`CREATE TABLE IF NOT EXISTS positions (
		wallet              TEXT NOT NULL,
		token               TEXT NOT NULL,
		chain_id            TEXT NOT NULL,
		open_qty            REAL NOT NULL DEFAULT 0,
		cost_basis_usd      REAL NOT NULL DEFAULT 0,
		realized_pnl_usd    REAL NOT NULL DEFAULT 0,
		unrealized_pnl_usd  REAL NOT NULL DEFAULT 0,
		last_mark_price     REAL NOT NULL DEFAULT 0,
		last_updated_at     DATETIME NOT NULL,
		open_lots_json      TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (wallet, token)
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_stats_30d (
		wallet               TEXT NOT NULL,
		chain_id             TEXT NOT NULL,
		trade_count          INTEGER NOT NULL DEFAULT 0,
		realized_pnl_usd     REAL NOT NULL DEFAULT 0,
		unrealized_pnl_usd   REAL NOT NULL DEFAULT 0,
		best_trade_multiple  REAL NOT NULL DEFAULT 0,
		median_early_score   REAL NOT NULL DEFAULT 0,
		max_drawdown_pct     REAL NOT NULL DEFAULT 0,
		last_updated_at      DATETIME NOT NULL,
		PRIMARY KEY (wallet)
	)`,
	`CREATE TABLE IF NOT EXISTS watchlist_membership (
		wallet     TEXT PRIMARY KEY,
		chain_id   TEXT NOT NULL,
		is_custom  BOOLEAN NOT NULL DEFAULT 0,
		is_active  BOOLEAN NOT NULL DEFAULT 1,
		label      TEXT NOT NULL DEFAULT '',
		score      REAL NOT NULL DEFAULT 0,
		added_at   DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id           TEXT PRIMARY KEY,
		ts           DATETIME NOT NULL,
		type         TEXT NOT NULL,
		token        TEXT NOT NULL,
		chain_id     TEXT NOT NULL,
		wallet_set   TEXT NOT NULL DEFAULT '[]',
		rule_id      TEXT NOT NULL DEFAULT '',
		payload_json TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts (ts)`,
	`CREATE TABLE IF NOT EXISTS wallet_monitor_cursor (
		wallet       TEXT NOT NULL,
		chain_id     TEXT NOT NULL,
		last_tx_hash TEXT NOT NULL DEFAULT '',
		updated_at   DATETIME NOT NULL,
		PRIMARY KEY (chain_id, wallet)
	)`,
	`CREATE TABLE IF NOT EXISTS source_health (
		source            TEXT PRIMARY KEY,
		consecutive_fails INTEGER NOT NULL DEFAULT 0,
		last_success_at   DATETIME,
		last_error        TEXT NOT NULL DEFAULT '',
		updated_at        DATETIME NOT NULL
	)`,
}
