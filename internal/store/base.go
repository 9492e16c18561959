// Package store holds the sqlite-backed repositories for every entity
// in the data model. Each repository borrows by identifier, never by
// pointer, and owns no lifetime beyond the shared *sql.DB.
package store

import (
	"database/sql"

	"github.com/rs/zerolog"
)

// base provides the common handle every repository embeds.
type base struct {
	db  *sql.DB
	log zerolog.Logger
}

func newBase(db *sql.DB, log zerolog.Logger, repo string) base {
	return base{db: db, log: log.With().Str("repo", repo).Logger()}
}
