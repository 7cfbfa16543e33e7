package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polyarb/internal/arbitrage"
	"github.com/alanyoungcy/polyarb/internal/domain"
)

// ScanRequest parameterises one scan.
type ScanRequest struct {
	FetchRequest
	MinEdge float64
	Stake   float64
	// Record sends the finished scan to the store, bus, notifier and archive.
	Record bool
}

// Alerter announces a finished scan. *notify.Notifier satisfies it.
type Alerter interface {
	NotifyScan(ctx context.Context, scan domain.Scan) error
}

// ScanDeps lists the collaborators of a ScanService. Only Fetcher is
// required; the rest are skipped when nil.
type ScanDeps struct {
	Fetcher  *MarketFetcher
	Scans    domain.ScanStore
	Markets  domain.MarketStore
	Bus      domain.SignalBus
	Alerter  Alerter
	Archiver domain.ScanArchiver
}

// ScanService runs fetch, detect and size, then fans the result out to the
// configured side channels. Side-channel failures are logged and never fail
// the scan.
type ScanService struct {
	deps   ScanDeps
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewScanService creates a ScanService.
func NewScanService(deps ScanDeps, logger *slog.Logger) *ScanService {
	return &ScanService{
		deps:   deps,
		logger: logger.With(slog.String("component", "scan_service")),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Scan fetches markets for req and returns the ranked, sized opportunities.
func (s *ScanService) Scan(ctx context.Context, req ScanRequest) (domain.Scan, error) {
	if err := arbitrage.ValidateStake(req.Stake); err != nil {
		return domain.Scan{}, fmt.Errorf("service: scan: %w", err)
	}

	started := s.now()
	markets, err := s.deps.Fetcher.Fetch(ctx, req.FetchRequest)
	if err != nil {
		return domain.Scan{}, fmt.Errorf("service: scan: %w", err)
	}

	scan, err := s.Evaluate(markets, req.MinEdge, req.Stake)
	if err != nil {
		return domain.Scan{}, fmt.Errorf("service: scan: %w", err)
	}
	scan.ID = s.newID()
	scan.Categories = req.Categories
	scan.StartedAt = started
	scan.FinishedAt = s.now()

	s.logger.InfoContext(ctx, "scan finished",
		slog.String("scan_id", scan.ID),
		slog.Int("markets", scan.MarketCount),
		slog.Int("events", scan.EventCount),
		slog.Int("opportunities", len(scan.Opportunities)),
		slog.Float64("best_edge", scan.BestEdge()),
		slog.Duration("duration", scan.Duration()),
	)

	if req.Record {
		s.record(ctx, scan, markets)
	}
	return scan, nil
}

// Evaluate runs detection and sizing over an already fetched snapshot. The
// returned Scan has no id or timestamps.
func (s *ScanService) Evaluate(markets []domain.Market, minEdge, stake float64) (domain.Scan, error) {
	groups := arbitrage.GroupByEvent(markets)
	det := arbitrage.NewDetector(arbitrage.Config{MinEdge: minEdge}, s.logger)
	sized, err := arbitrage.Size(det.DetectEvents(groups), stake)
	if err != nil {
		return domain.Scan{}, err
	}
	return domain.Scan{
		MinEdge:       minEdge,
		Stake:         stake,
		MarketCount:   len(markets),
		EventCount:    len(groups),
		Opportunities: sized,
	}, nil
}

// record stores, publishes, announces and archives a finished scan.
func (s *ScanService) record(ctx context.Context, scan domain.Scan, markets []domain.Market) {
	if s.deps.Markets != nil {
		if err := s.deps.Markets.UpsertBatch(ctx, markets); err != nil {
			s.warn(ctx, "market snapshot upsert failed", scan.ID, err)
		}
	}
	if s.deps.Scans != nil {
		if err := s.deps.Scans.Insert(ctx, scan); err != nil {
			s.warn(ctx, "scan insert failed", scan.ID, err)
		}
	}
	if s.deps.Bus != nil {
		s.publish(ctx, scan)
	}
	if s.deps.Alerter != nil {
		if err := s.deps.Alerter.NotifyScan(ctx, scan); err != nil {
			s.warn(ctx, "scan notification failed", scan.ID, err)
		}
	}
	if s.deps.Archiver != nil {
		path, err := s.deps.Archiver.ArchiveScan(ctx, scan, markets)
		if err != nil {
			s.warn(ctx, "scan archive failed", scan.ID, err)
		} else {
			s.logger.DebugContext(ctx, "scan archived",
				slog.String("scan_id", scan.ID),
				slog.String("path", path),
			)
		}
	}
}

// publish sends each opportunity on the opportunities channel, then the scan
// summary on the scans channel and stream.
func (s *ScanService) publish(ctx context.Context, scan domain.Scan) {
	for _, so := range scan.Opportunities {
		payload, err := json.Marshal(so)
		if err != nil {
			s.warn(ctx, "marshal opportunity failed", scan.ID, err)
			continue
		}
		if err := s.deps.Bus.Publish(ctx, domain.ChannelOpportunities, payload); err != nil {
			s.warn(ctx, "publish opportunity failed", scan.ID, err)
			return
		}
	}

	summary, err := json.Marshal(scan.Summary())
	if err != nil {
		s.warn(ctx, "marshal scan summary failed", scan.ID, err)
		return
	}
	if err := s.deps.Bus.Publish(ctx, domain.ChannelScans, summary); err != nil {
		s.warn(ctx, "publish scan summary failed", scan.ID, err)
	}
	if err := s.deps.Bus.StreamAppend(ctx, domain.StreamScans, summary); err != nil {
		s.warn(ctx, "append scan stream failed", scan.ID, err)
	}
}

func (s *ScanService) warn(ctx context.Context, msg, scanID string, err error) {
	s.logger.WarnContext(ctx, msg,
		slog.String("scan_id", scanID),
		slog.String("error", err.Error()),
	)
}
