package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/polyarb/internal/domain"
	"github.com/alanyoungcy/polyarb/internal/service"
)

// Scanner runs a live scan. *service.ScanService satisfies it.
type Scanner interface {
	Scan(ctx context.Context, req service.ScanRequest) (domain.Scan, error)
}

// OpportunityHandler runs on-demand scans for API clients.
type OpportunityHandler struct {
	scanner  Scanner
	defaults service.ScanRequest
	logger   *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler. defaults supplies the
// parameters a request does not override.
func NewOpportunityHandler(scanner Scanner, defaults service.ScanRequest, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		scanner:  scanner,
		defaults: defaults,
		logger:   logHandler(logger, "opportunities"),
	}
}

// ListOpportunities scans the venue and returns the ranked, sized
// opportunities as a JSON array.
// GET /api/opportunities?category=sports&min_edge=0.01&max_markets=500&stake=100
func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scan, err := h.scanner.Scan(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrInvalidStake):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusServiceUnavailable, "upstream rate limited, retry later")
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "scan failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "failed to fetch markets")
		return
	}

	opps := scan.Opportunities
	if opps == nil {
		opps = []domain.SizedOpportunity{}
	}
	writeJSON(w, http.StatusOK, opps)
}

// parseRequest overlays query parameters on the defaults. Live API scans are
// never recorded.
func (h *OpportunityHandler) parseRequest(r *http.Request) (service.ScanRequest, error) {
	req := h.defaults
	req.Categories = append([]string(nil), h.defaults.Categories...)
	req.Record = false

	if v, ok := r.URL.Query()["category"]; ok {
		req.Categories = splitCategories(v[0])
	}
	if err := queryFloat(r, "min_edge", &req.MinEdge); err != nil {
		return req, err
	}
	if err := queryFloat(r, "stake", &req.Stake); err != nil {
		return req, err
	}
	if err := queryInt(r, "max_markets", &req.MaxMarkets); err != nil {
		return req, err
	}
	if req.MaxMarkets < 1 {
		return req, errors.New("max_markets must be >= 1")
	}
	return req, nil
}

// splitCategories turns "sports,politics" into a category list. An empty
// value scans every category.
func splitCategories(v string) []string {
	var out []string
	for _, c := range strings.Split(v, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}
