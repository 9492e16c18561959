// Package events provides a structured, best-effort lifecycle log
// for pipeline-level occurrences that don't belong to any one job's
// own logger: discovery passes starting/finishing, a source tripping
// its failure cap, a confluence signal firing, a paper position
// opening or closing. It is a logging aid, not a queue — nothing
// downstream blocks on or replays from it.
package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// EventType names one kind of pipeline occurrence.
type EventType string

const (
	IngestPassStarted    EventType = "INGEST_PASS_STARTED"
	IngestPassCompleted  EventType = "INGEST_PASS_COMPLETED"
	SourceDegraded       EventType = "SOURCE_DEGRADED"
	SourceRecovered      EventType = "SOURCE_RECOVERED"
	ConfluenceDetected   EventType = "CONFLUENCE_DETECTED"
	PositionOpened       EventType = "POSITION_OPENED"
	PositionClosed       EventType = "POSITION_CLOSED"
	WatchlistWalletAdded EventType = "WATCHLIST_WALLET_ADDED"
	WatchlistWalletDropped EventType = "WATCHLIST_WALLET_DROPPED"
	ErrorOccurred        EventType = "ERROR_OCCURRED"
)

// Event is one logged occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager logs events as structured lines. It holds no state and
// never blocks a caller.
type Manager struct {
	log zerolog.Logger
}

// NewManager builds a Manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
	}
}

// Emit logs one event.
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("event emitted")
}

// EmitError logs an ErrorOccurred event carrying err and context.
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	data := map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	}
	m.Emit(ErrorOccurred, module, data)
}
