package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
)

// AlertRepository owns the immutable alerts table.
type AlertRepository struct {
	base
}

// NewAlertRepository builds an AlertRepository.
func NewAlertRepository(db *sql.DB, log zerolog.Logger) *AlertRepository {
	return &AlertRepository{base: newBase(db, log, "alert")}
}

// Insert appends an Alert, assigning a synthetic id if absent.
func (r *AlertRepository) Insert(a domain.Alert) (domain.Alert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	walletSetJSON, err := json.Marshal(a.WalletSet)
	if err != nil {
		return a, fmt.Errorf("marshal wallet set: %w", err)
	}
	payloadJSON, err := json.Marshal(a.Payload)
	if err != nil {
		return a, fmt.Errorf("marshal alert payload: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO alerts (id, ts, type, token, chain_id, wallet_set, rule_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Timestamp, string(a.Type), a.Token, a.ChainID, string(walletSetJSON), a.RuleID, string(payloadJSON))
	if err != nil {
		return a, fmt.Errorf("insert alert: %w", err)
	}
	return a, nil
}

// Recent returns the most recently emitted alerts, newest first.
func (r *AlertRepository) Recent(limit int) ([]domain.Alert, error) {
	rows, err := r.db.Query(`
		SELECT id, ts, type, token, chain_id, wallet_set, rule_id, payload_json
		FROM alerts ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]domain.Alert, error) {
	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var typ, walletSetJSON, payloadJSON string
		if err := rows.Scan(&a.ID, &a.Timestamp, &typ, &a.Token, &a.ChainID, &walletSetJSON, &a.RuleID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = domain.AlertType(typ)
		if err := json.Unmarshal([]byte(walletSetJSON), &a.WalletSet); err != nil {
			return nil, fmt.Errorf("unmarshal wallet set: %w", err)
		}
		if err := json.Unmarshal([]byte(payloadJSON), &a.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal alert payload: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
