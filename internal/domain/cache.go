package domain

import (
	"context"
	"time"
)

// MarketCache holds recently fetched market snapshots keyed by the query that
// produced them.
type MarketCache interface {
	GetSnapshot(ctx context.Context, key string) ([]Market, error)
	SetSnapshot(ctx context.Context, key string, markets []Market, ttl time.Duration) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// Bus channel and stream names.
const (
	// ChannelOpportunities carries one JSON SizedOpportunity per message.
	ChannelOpportunities = "arb"
	// ChannelScans carries a JSON ScanSummary after every completed scan.
	ChannelScans = "scans"
	// StreamScans is the durable log of ScanSummary payloads.
	StreamScans = "scans"
)

// ScanSummary is the compact form of a Scan published on the bus.
type ScanSummary struct {
	ID            string    `json:"id"`
	Categories    []string  `json:"categories"`
	MarketCount   int       `json:"market_count"`
	EventCount    int       `json:"event_count"`
	Opportunities int       `json:"opportunities"`
	BestEdge      float64   `json:"best_edge"`
	FinishedAt    time.Time `json:"finished_at"`
	DurationMs    int64     `json:"duration_ms"`
}

// Summary returns the bus representation of s.
func (s Scan) Summary() ScanSummary {
	return ScanSummary{
		ID:            s.ID,
		Categories:    s.Categories,
		MarketCount:   s.MarketCount,
		EventCount:    s.EventCount,
		Opportunities: len(s.Opportunities),
		BestEdge:      s.BestEdge(),
		FinishedAt:    s.FinishedAt,
		DurationMs:    s.Duration().Milliseconds(),
	}
}
