package handler

import (
	"net/http"
	"time"
)

// StatusHandler reports how this process is configured.
type StatusHandler struct {
	Mode       string
	Categories []string
	MinEdge    float64
	Stake      float64
	Interval   time.Duration
	StartedAt  time.Time
}

// GetStatus responds with the running mode and scan parameters.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.Mode,
		"categories":     h.Categories,
		"min_edge":       h.MinEdge,
		"stake":          h.Stake,
		"interval":       h.Interval.String(),
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
	})
}
