package server

import (
	"net/http"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// handleHealth reports process vitals, per-source adapter health, and
// per-job last-success timestamps in one snapshot, so an operator can
// tell degraded upstream sources apart from a stuck job without
// grepping logs.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfo(); err == nil {
			body["rss_bytes"] = rss.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			body["cpu_percent"] = cpu
		}
	}

	if s.cfg.Health != nil {
		if rows, err := s.cfg.Health.All(); err == nil {
			body["sources"] = rows
		}
	}

	if s.cfg.JobHealth != nil {
		body["jobs_last_success"] = s.cfg.JobHealth.Snapshot()
	}

	writeJSON(w, http.StatusOK, body)
}
