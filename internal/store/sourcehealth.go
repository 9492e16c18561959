package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SourceHealthRow is the observable state of one upstream source,
// surfaced on /health so an operator can see which adapter degraded.
type SourceHealthRow struct {
	Source           string
	ConsecutiveFails int
	LastSuccessAt    *time.Time
	LastError        string
}

// SourceHealthRepository persists per-source failure counters and
// last-success timestamps across restarts.
type SourceHealthRepository struct {
	base
}

// NewSourceHealthRepository builds a SourceHealthRepository.
func NewSourceHealthRepository(db *sql.DB, log zerolog.Logger) *SourceHealthRepository {
	return &SourceHealthRepository{base: newBase(db, log, "source_health")}
}

// RecordSuccess clears the failure counter and stamps last-success.
func (r *SourceHealthRepository) RecordSuccess(source string) error {
	_, err := r.db.Exec(`
		INSERT INTO source_health (source, consecutive_fails, last_success_at, last_error, updated_at)
		VALUES (?, 0, datetime('now'), '', datetime('now'))
		ON CONFLICT(source) DO UPDATE SET consecutive_fails = 0, last_success_at = datetime('now'),
			last_error = '', updated_at = datetime('now')
	`, source)
	if err != nil {
		return fmt.Errorf("record source success: %w", err)
	}
	return nil
}

// RecordFailure increments the failure counter and records the error.
func (r *SourceHealthRepository) RecordFailure(source, errMsg string) error {
	_, err := r.db.Exec(`
		INSERT INTO source_health (source, consecutive_fails, last_error, updated_at)
		VALUES (?, 1, ?, datetime('now'))
		ON CONFLICT(source) DO UPDATE SET consecutive_fails = consecutive_fails + 1,
			last_error = excluded.last_error, updated_at = datetime('now')
	`, source, errMsg)
	if err != nil {
		return fmt.Errorf("record source failure: %w", err)
	}
	return nil
}

// ResetAll zeroes every source's failure counter, the periodic hourly
// reset that lets a source recover from a transient outage.
func (r *SourceHealthRepository) ResetAll() error {
	_, err := r.db.Exec(`UPDATE source_health SET consecutive_fails = 0, updated_at = datetime('now')`)
	if err != nil {
		return fmt.Errorf("reset source health: %w", err)
	}
	return nil
}

// All returns every tracked source's health row.
func (r *SourceHealthRepository) All() ([]SourceHealthRow, error) {
	rows, err := r.db.Query(`SELECT source, consecutive_fails, last_success_at, last_error FROM source_health`)
	if err != nil {
		return nil, fmt.Errorf("all source health: %w", err)
	}
	defer rows.Close()

	var out []SourceHealthRow
	for rows.Next() {
		var row SourceHealthRow
		var lastSuccess sql.NullTime
		if err := rows.Scan(&row.Source, &row.ConsecutiveFails, &lastSuccess, &row.LastError); err != nil {
			return nil, fmt.Errorf("scan source health: %w", err)
		}
		if lastSuccess.Valid {
			row.LastSuccessAt = &lastSuccess.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
