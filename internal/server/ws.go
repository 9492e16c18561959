package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/alphawallet/internal/domain"
)

const wsWriteTimeout = 10 * time.Second

// alertHub is a best-effort fan-out of new Alert rows to every
// connected dashboard. It is pure read-side: a client whose buffer is
// full misses that alert (it stays connected), nothing upstream waits
// on it.
type alertHub struct {
	mu      sync.Mutex
	clients map[chan domain.Alert]struct{}
	log     zerolog.Logger
}

func newAlertHub(log zerolog.Logger) *alertHub {
	return &alertHub{
		clients: make(map[chan domain.Alert]struct{}),
		log:     log.With().Str("component", "alert_hub").Logger(),
	}
}

func (h *alertHub) register() chan domain.Alert {
	ch := make(chan domain.Alert, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *alertHub) unregister(ch chan domain.Alert) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *alertHub) broadcast(alert domain.Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- alert:
		default:
			h.log.Debug().Msg("dropped alert push, client buffer full")
		}
	}
}

func (h *alertHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// handleAlertsWS upgrades to a websocket and streams every alert
// emitted after the connection opens. It never replays history; the
// REST /api/dashboard/recent-alerts endpoint covers that.
func (s *Server) handleAlertsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ch := s.hub.register()
	defer s.hub.unregister(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case alert, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			data, err := json.Marshal(alert)
			if err != nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
