// Package alerts provides Alerter implementations: fail-open sinks
// for emitted signals. A failure here must never affect pipeline
// control flow, per the domain.Alerter contract.
package alerts

import (
	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/store"
)

// LogSink emits every alert as a structured log line. It is the
// always-on baseline sink; chat/webhook sinks (out of scope here,
// per §1) would wrap or compose alongside it.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink builds a LogSink.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "alerts").Logger()}
}

// Emit implements domain.Alerter.
func (s *LogSink) Emit(alert domain.Alert) {
	s.log.Info().
		Str("alert_id", alert.ID).
		Str("type", string(alert.Type)).
		Str("token", alert.Token).
		Str("chain", alert.ChainID).
		Strs("wallets", alert.WalletSet).
		Msg("alert emitted")
}

// PersistingSink records every alert into the entity store in
// addition to logging it, so dashboard and win-rate queries have a
// durable history to read. Persistence failures are logged, never
// propagated: an alert sink must stay fail-open.
type PersistingSink struct {
	alerts *store.AlertRepository
	next   domain.Alerter
	log    zerolog.Logger
}

// NewPersistingSink wraps next (may be nil) with durable storage.
func NewPersistingSink(alerts *store.AlertRepository, next domain.Alerter, log zerolog.Logger) *PersistingSink {
	return &PersistingSink{alerts: alerts, next: next, log: log.With().Str("component", "alerts").Logger()}
}

// Emit implements domain.Alerter.
func (s *PersistingSink) Emit(alert domain.Alert) {
	if _, err := s.alerts.Insert(alert); err != nil {
		s.log.Warn().Err(err).Str("alert_id", alert.ID).Msg("alert persistence failed")
	}
	if s.next != nil {
		s.next.Emit(alert)
	}
}
