package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// ScanReader is the read side of the scan history store.
type ScanReader interface {
	GetByID(ctx context.Context, id string) (domain.Scan, error)
	ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Scan, error)
}

// SummaryStream returns the newest entries of a bus stream.
// *redis.SignalBus satisfies it.
type SummaryStream interface {
	StreamRecent(ctx context.Context, stream string, count int) ([]domain.StreamMessage, error)
}

// ScanHandler serves scan history endpoints.
type ScanHandler struct {
	store  ScanReader    // optional
	stream SummaryStream // optional; consulted when store is nil
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler. store may be nil.
func NewScanHandler(store ScanReader, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{store: store, logger: logHandler(logger, "scans")}
}

// WithSummaryStream sets the stream used for recent scans when no store is
// configured.
func (h *ScanHandler) WithSummaryStream(s SummaryStream) *ScanHandler {
	h.stream = s
	return h
}

type listScansResponse struct {
	Scans  []domain.ScanSummary `json:"scans"`
	Source string               `json:"source"`
}

// ListRecent returns summaries of the most recent recorded scans, newest
// first.
// GET /api/scans/recent?limit=20
func (h *ScanHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20, 200)

	switch {
	case h.store != nil:
		opts := domain.ListOpts{Limit: limit}
		if v := r.URL.Query().Get("since"); v != "" {
			since, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid since, want RFC3339")
				return
			}
			opts.Since = &since
		}
		scans, err := h.store.ListRecent(r.Context(), opts)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "list scans failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to list scans")
			return
		}
		out := make([]domain.ScanSummary, 0, len(scans))
		for _, s := range scans {
			out = append(out, s.Summary())
		}
		writeJSON(w, http.StatusOK, listScansResponse{Scans: out, Source: "store"})

	case h.stream != nil:
		msgs, err := h.stream.StreamRecent(r.Context(), domain.StreamScans, limit)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "read scan stream failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "failed to list scans")
			return
		}
		out := make([]domain.ScanSummary, 0, len(msgs))
		for _, m := range msgs {
			var s domain.ScanSummary
			if err := json.Unmarshal(m.Payload, &s); err != nil {
				h.logger.WarnContext(r.Context(), "skipping bad stream entry",
					slog.String("id", m.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			out = append(out, s)
		}
		writeJSON(w, http.StatusOK, listScansResponse{Scans: out, Source: "stream"})

	default:
		writeError(w, http.StatusNotImplemented, "scan history is not configured")
	}
}

// GetScan returns one recorded scan with its opportunities.
// GET /api/scans/{id}
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "scan history is not configured")
		return
	}
	scan, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get scan failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get scan")
		return
	}
	if scan.Opportunities == nil {
		scan.Opportunities = []domain.SizedOpportunity{}
	}
	writeJSON(w, http.StatusOK, scan)
}
