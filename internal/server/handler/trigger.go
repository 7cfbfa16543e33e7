package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// TriggerHandler asks the running monitor for an immediate scan.
type TriggerHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{} // nil when no monitor is running
}

// NewTriggerHandler creates a TriggerHandler.
func NewTriggerHandler(logger *slog.Logger) *TriggerHandler {
	return &TriggerHandler{logger: logHandler(logger, "trigger")}
}

// WithTriggerChannel sets the channel the monitor loop receives from.
func (h *TriggerHandler) WithTriggerChannel(ch chan<- struct{}) *TriggerHandler {
	h.triggerCh = ch
	return h
}

// TriggerScan enqueues one monitor scan. Repeated triggers before the monitor
// picks one up collapse into a single scan.
// POST /api/scans/trigger
func (h *TriggerHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if h.triggerCh == nil {
		writeError(w, http.StatusServiceUnavailable, "no monitor is running")
		return
	}
	h.logger.InfoContext(r.Context(), "scan trigger requested")

	queued := true
	select {
	case h.triggerCh <- struct{}{}:
	default:
		queued = false
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"queued":       queued,
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
