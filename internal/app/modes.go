package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/alanyoungcy/polyarb/internal/blob/s3"
	"github.com/alanyoungcy/polyarb/internal/domain"
	"github.com/alanyoungcy/polyarb/internal/report"
	"github.com/alanyoungcy/polyarb/internal/server"
	"github.com/alanyoungcy/polyarb/internal/server/handler"
	"github.com/alanyoungcy/polyarb/internal/server/ws"
	"github.com/alanyoungcy/polyarb/internal/service"
)

const shutdownTimeout = 5 * time.Second

// s3ReplayPrefix marks a replay path as an object key in the configured bucket.
const s3ReplayPrefix = "s3:"

// scanRequest builds the scan parameters from configuration.
func (a *App) scanRequest() service.ScanRequest {
	return service.ScanRequest{
		FetchRequest: service.FetchRequest{
			Categories: a.cfg.Scan.CategoryList(),
			MaxMarkets: a.cfg.Scan.MaxMarkets,
			MinVolume:  a.cfg.Scan.MinVolume,
		},
		MinEdge: a.cfg.Scan.MinEdge,
		Stake:   a.cfg.Scan.Stake,
	}
}

// ScanMode runs one scan and prints the report. The scan is recorded to
// whatever infrastructure is enabled. With a replay path the archived
// snapshot is evaluated instead and nothing is recorded.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	req := a.scanRequest()

	var scan domain.Scan
	if a.replay != "" {
		markets, err := a.loadReplay(ctx, deps)
		if err != nil {
			return fmt.Errorf("scan mode: %w", err)
		}
		a.logger.InfoContext(ctx, "replaying snapshot",
			slog.String("path", a.replay),
			slog.Int("markets", len(markets)),
		)
		scan, err = deps.Scans.Evaluate(markets, req.MinEdge, req.Stake)
		if err != nil {
			return fmt.Errorf("scan mode: %w", err)
		}
	} else {
		req.Record = true
		var err error
		scan, err = deps.Scans.Scan(ctx, req)
		if err != nil {
			return fmt.Errorf("scan mode: %w", err)
		}
	}

	if err := report.Write(a.out, scan.Opportunities); err != nil {
		return fmt.Errorf("scan mode: write report: %w", err)
	}
	return nil
}

// loadReplay reads the snapshot named by a.replay. A scan object path
// (".json") resolves to the snapshot stored next to it.
func (a *App) loadReplay(ctx context.Context, deps *Dependencies) ([]domain.Market, error) {
	path := a.replay
	if strings.HasSuffix(path, ".json") {
		path = s3blob.MarketsPath(path)
	}

	if key, ok := strings.CutPrefix(path, s3ReplayPrefix); ok {
		if deps.BlobReader == nil {
			return nil, errors.New("replay from s3 requires s3.enabled")
		}
		return deps.BlobReader.LoadMarkets(ctx, key)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()
	markets, err := s3blob.DecodeMarkets(f)
	if err != nil {
		return nil, fmt.Errorf("read replay %s: %w", path, err)
	}
	return markets, nil
}

// MonitorMode scans on the configured interval until ctx is cancelled.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startMonitor(ctx, g, deps, nil)
	return g.Wait()
}

// ServerMode serves the HTTP API and WebSocket feed.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// FullMode runs the monitor and the HTTP server together. POST
// /api/scans/trigger requests an immediate monitor scan.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	triggerCh := make(chan struct{}, 1)
	a.startMonitor(ctx, g, deps, triggerCh)
	a.startHTTPServer(ctx, g, deps, triggerCh)
	return g.Wait()
}

func (a *App) startMonitor(ctx context.Context, g *errgroup.Group, deps *Dependencies, trigger <-chan struct{}) {
	var locks domain.LockManager
	if deps.LockManager != nil {
		locks = deps.LockManager
	}
	mon := service.NewMonitor(deps.Scans, locks, a.scanRequest(), a.cfg.Scan.Interval.Duration, trigger, a.logger)
	g.Go(func() error {
		return mon.Run(ctx)
	})
}

// startHTTPServer registers the API server and, when the signal bus is
// wired, the WebSocket hub on g. triggerCh is nil when no monitor runs.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, triggerCh chan<- struct{}) {
	startedAt := time.Now().UTC()

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{Mode: a.cfg.Mode, StartedAt: startedAt})
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	var scanReader handler.ScanReader
	if deps.ScanStore != nil {
		scanReader = deps.ScanStore
	}
	scans := handler.NewScanHandler(scanReader, a.logger)
	if deps.SignalBus != nil {
		scans = scans.WithSummaryStream(deps.SignalBus)
	}

	trigger := handler.NewTriggerHandler(a.logger)
	if triggerCh != nil {
		trigger = trigger.WithTriggerChannel(triggerCh)
	}

	cfg := server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
	}
	if deps.RateLimiter != nil {
		cfg.Limiter = deps.RateLimiter
	}

	srv := server.NewServer(cfg, server.Handlers{
		Health: handler.NewHealthHandler(deps.healthChecks(), a.logger),
		Status: &handler.StatusHandler{
			Mode:       a.cfg.Mode,
			Categories: a.cfg.Scan.CategoryList(),
			MinEdge:    a.cfg.Scan.MinEdge,
			Stake:      a.cfg.Scan.Stake,
			Interval:   a.cfg.Scan.Interval.Duration,
			StartedAt:  startedAt,
		},
		Opportunities: handler.NewOpportunityHandler(deps.Scans, a.scanRequest(), a.logger),
		Scans:         scans,
		Trigger:       trigger,
	}, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
