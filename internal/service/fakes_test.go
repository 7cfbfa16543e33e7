package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// pagedSource serves markets per category in pages and records each query.
type pagedSource struct {
	mu      sync.Mutex
	byCat   map[string][]domain.Market
	queries []domain.MarketQuery
	err     error
}

func (p *pagedSource) ListMarkets(ctx context.Context, q domain.MarketQuery) ([]domain.Market, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, q)
	if p.err != nil {
		return nil, p.err
	}
	all := p.byCat[q.Category]
	if q.Offset >= len(all) {
		return nil, nil
	}
	end := min(q.Offset+q.Limit, len(all))
	return all[q.Offset:end], nil
}

type memCache struct {
	snaps map[string][]domain.Market
	ttls  map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{snaps: map[string][]domain.Market{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) GetSnapshot(ctx context.Context, key string) ([]domain.Market, error) {
	m, ok := c.snaps[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (c *memCache) SetSnapshot(ctx context.Context, key string, markets []domain.Market, ttl time.Duration) error {
	c.snaps[key] = markets
	c.ttls[key] = ttl
	return nil
}

type memScanStore struct {
	scans []domain.Scan
	err   error
}

func (s *memScanStore) Insert(ctx context.Context, scan domain.Scan) error {
	if s.err != nil {
		return s.err
	}
	s.scans = append(s.scans, scan)
	return nil
}

func (s *memScanStore) GetByID(ctx context.Context, id string) (domain.Scan, error) {
	for _, sc := range s.scans {
		if sc.ID == id {
			return sc, nil
		}
	}
	return domain.Scan{}, domain.ErrNotFound
}

func (s *memScanStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Scan, error) {
	return s.scans, nil
}

type memMarketStore struct {
	upserted int
}

func (s *memMarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	s.upserted += len(markets)
	return nil
}

func (s *memMarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	return domain.Market{}, domain.ErrNotFound
}

func (s *memMarketStore) Count(ctx context.Context) (int64, error) {
	return int64(s.upserted), nil
}

type published struct {
	channel string
	payload string
}

type memBus struct {
	pubs    []published
	streams map[string][]string
}

func (b *memBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.pubs = append(b.pubs, published{channel, string(payload)})
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, fmt.Errorf("not supported")
}

func (b *memBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	if b.streams == nil {
		b.streams = map[string][]string{}
	}
	b.streams[stream] = append(b.streams[stream], string(payload))
	return nil
}

func (b *memBus) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type countingAlerter struct{ calls int }

func (a *countingAlerter) NotifyScan(ctx context.Context, scan domain.Scan) error {
	a.calls++
	return fmt.Errorf("telegram down")
}

type memArchiver struct{ paths []string }

func (a *memArchiver) ArchiveScan(ctx context.Context, scan domain.Scan, markets []domain.Market) (string, error) {
	p := "scans/" + scan.ID + ".json"
	a.paths = append(a.paths, p)
	return p, nil
}

func market(id, event string, outcomes []string, prices []float64) domain.Market {
	return domain.Market{ID: id, EventSlug: event, Outcomes: outcomes, OutcomePrices: prices, Active: true}
}

func numbered(prefix string, n int) []domain.Market {
	out := make([]domain.Market, n)
	for i := range out {
		id := fmt.Sprintf("%s-%d", prefix, i)
		out[i] = market(id, id, []string{"Yes", "No"}, []float64{0.5, 0.5})
	}
	return out
}
