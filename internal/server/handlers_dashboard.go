package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/alphawallet/internal/domain"
	"github.com/aristath/alphawallet/internal/watchlist"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func limitParam(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// handleOverview reports aggregate counts across the entity store: a
// single round-trip snapshot of pipeline scale, not a time series.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	active, err := s.cfg.Watchlist.Active()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	stats, err := s.cfg.Stats.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var totalRealized, totalUnrealized float64
	for _, st := range stats {
		totalRealized += st.RealizedPnLUSD
		totalUnrealized += st.UnrealizedPnLUSD
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"watched_wallets":     len(active),
		"wallets_with_stats":  len(stats),
		"total_realized_pnl":  totalRealized,
		"total_unrealized_pnl": totalUnrealized,
		"paper_trader_cash":   s.cfg.Trader.CashBalance(),
		"open_positions":      len(s.cfg.Trader.OpenPositions()),
		"uptime_seconds":      int(time.Since(s.cfg.StartedAt).Seconds()),
	})
}

// handleTopWallets ranks every wallet with stats by the same composite
// score the watchlist maintainer uses, so the dashboard view matches
// what actually drives monitoring decisions.
func (s *Server) handleTopWallets(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cfg.Stats.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	scored := watchlist.Rank(stats, nil, -1e18, 0, watchlist.DefaultWeights)
	writeJSON(w, http.StatusOK, watchlist.TopK(scored, limitParam(r, 25, 200)))
}

// handleRecentTrades surfaces the dashboard activity feed, newest first.
func (s *Server) handleRecentTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.cfg.Trades.Recent(limitParam(r, 50, 500))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// handleTrendingTokens surfaces the most recent TrendingSource
// snapshots across every source, the runner_seed job's own output.
func (s *Server) handleTrendingTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.cfg.Seeds.Recent(limitParam(r, 50, 500))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// handleRecentAlerts surfaces the alert history (buy/sell confluence,
// exits), the same feed the websocket endpoint pushes live.
func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.cfg.Alerts.Recent(limitParam(r, 50, 500))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// handlePaperTraderStatus reports the paper trader's full state: cash,
// open positions, closed trades, and win/loss counters.
func (s *Server) handlePaperTraderStatus(w http.ResponseWriter, r *http.Request) {
	wins, losses := s.cfg.Trader.WinLossCounts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"starting_balance": s.cfg.Trader.StartingCash(),
		"current_balance":  s.cfg.Trader.CashBalance(),
		"open_positions":   s.cfg.Trader.OpenPositions(),
		"closed_trades":    s.cfg.Trader.ClosedTrades(),
		"wins":             wins,
		"losses":           losses,
		"win_rate":         s.cfg.Trader.WinRate(),
	})
}

// handleListWatchlist returns every custom-curated wallet, active or not.
func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.cfg.Custom.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

type addWalletRequest struct {
	ChainID string `json:"chain_id"`
	Address string `json:"address"`
	Label   string `json:"label"`
}

// handleAddWatchlistWallet adds or reactivates a custom wallet.
func (s *Server) handleAddWatchlistWallet(w http.ResponseWriter, r *http.Request) {
	var req addWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ChainID == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidInput)
		return
	}
	if err := s.cfg.Custom.Add(req.ChainID, req.Address, req.Label); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// handleRemoveWatchlistWallet soft-removes a custom wallet.
func (s *Server) handleRemoveWatchlistWallet(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if err := s.cfg.Custom.Remove(address); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
