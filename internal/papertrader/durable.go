package papertrader

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// EventType distinguishes the two mutations the durable log records.
type EventType string

const (
	EventOpen  EventType = "open"
	EventClose EventType = "close"
)

// Event is one append-only record in the durable log. A restart
// replays the full sequence to rebuild Trader state, bounding the
// maximum loss horizon on crash to whatever was appended since the
// last flush (none — Append flushes immediately).
type Event struct {
	Type        EventType     `msgpack:"type"`
	Position    *OpenPosition `msgpack:"position,omitempty"`
	ClosedTrade *ClosedTrade  `msgpack:"closed_trade,omitempty"`
	Cash        float64       `msgpack:"cash"`
}

// DurableLog is an append-only msgpack stream on disk, one Event per
// record, mirroring the streaming encoder/decoder style used for the
// display bridge's wire protocol.
type DurableLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
	enc  *msgpack.Encoder
}

// OpenDurableLog opens (creating if absent) the log file at path for
// appending.
func OpenDurableLog(path string) (*DurableLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &DurableLog{path: path, f: f, enc: msgpack.NewEncoder(f)}, nil
}

// Append writes one event and flushes it to disk before returning.
func (d *DurableLog) Append(e Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.enc.Encode(e); err != nil {
		return err
	}
	return d.f.Sync()
}

// Close releases the underlying file handle.
func (d *DurableLog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}

// Replay reads every event from the start of the log and rebuilds the
// Trader's in-memory position map, cash balance, and closed-trade
// history. Called once at startup, before the Trader accepts events.
func (d *DurableLog) Replay(t *Trader) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	dec := msgpack.NewDecoder(d.f)

	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch e.Type {
		case EventOpen:
			if e.Position != nil {
				t.positions[e.Position.Token] = e.Position
			}
		case EventClose:
			if e.ClosedTrade != nil {
				delete(t.positions, e.ClosedTrade.Token)
				t.closed = append(t.closed, *e.ClosedTrade)
				if e.ClosedTrade.Win {
					t.wins++
				} else {
					t.losses++
				}
			}
		}
		t.cash = e.Cash
	}

	if _, err := d.f.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	return nil
}
