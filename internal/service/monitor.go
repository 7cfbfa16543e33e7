package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// scanLockKey is the lock every monitor takes before a scan cycle.
const scanLockKey = "polyarb:scan"

// The scan lock outlives the interval so a slow cycle keeps it until it
// finishes and releases it.
const (
	scanLockIntervals = 3
	minScanLockTTL    = 2 * time.Minute
)

func scanLockTTL(interval time.Duration) time.Duration {
	return max(scanLockIntervals*interval, minScanLockTTL)
}

// Scanner runs one scan. *ScanService satisfies it.
type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (domain.Scan, error)
}

// Monitor runs a recorded scan on a fixed interval and whenever a trigger
// arrives. With a LockManager, only one monitor across processes scans per
// cycle.
type Monitor struct {
	scanner  Scanner
	locks    domain.LockManager
	req      ScanRequest
	interval time.Duration
	trigger  <-chan struct{}
	logger   *slog.Logger
}

// NewMonitor creates a Monitor. locks and trigger may be nil.
func NewMonitor(scanner Scanner, locks domain.LockManager, req ScanRequest, interval time.Duration, trigger <-chan struct{}, logger *slog.Logger) *Monitor {
	req.Record = true
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		scanner:  scanner,
		locks:    locks,
		req:      req,
		interval: interval,
		trigger:  trigger,
		logger:   logger.With(slog.String("component", "monitor")),
	}
}

// Run scans immediately, then once per interval until ctx is cancelled.
// Failed cycles are logged and the loop continues.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "monitor started",
		slog.Duration("interval", m.interval),
		slog.Any("categories", m.req.Categories),
	)

	m.RunOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.RunOnce(ctx)
		case <-m.trigger:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single guarded scan cycle and reports whether a scan
// ran to completion.
func (m *Monitor) RunOnce(ctx context.Context) bool {
	if m.locks != nil {
		unlock, err := m.locks.Acquire(ctx, scanLockKey, scanLockTTL(m.interval))
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				m.logger.DebugContext(ctx, "scan lock held elsewhere, skipping cycle")
			} else {
				m.logger.WarnContext(ctx, "scan lock unavailable, skipping cycle",
					slog.String("error", err.Error()),
				)
			}
			return false
		}
		defer unlock()
	}

	if _, err := m.scanner.Scan(ctx, m.req); err != nil {
		if ctx.Err() == nil {
			m.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
		}
		return false
	}
	return true
}
