package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
}

// MarketStore persists the market snapshots that scans were run against.
type MarketStore interface {
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	Count(ctx context.Context) (int64, error)
}

// ScanStore persists scan history and the opportunities each scan found.
type ScanStore interface {
	Insert(ctx context.Context, scan Scan) error
	GetByID(ctx context.Context, id string) (Scan, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]Scan, error)
}
