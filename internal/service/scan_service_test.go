package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

func fixedClock(s *ScanService) {
	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return t0.Add(time.Duration(calls) * time.Second)
	}
	s.newID = func() string { return "scan-1" }
}

func arbSource() *pagedSource {
	return &pagedSource{byCat: map[string][]domain.Market{"sports": {
		market("m1", "lakers-celtics", []string{"Lakers", "Celtics"}, []float64{0.45, 0.60}),
		market("m2", "lakers-celtics", []string{"Lakers", "Celtics"}, []float64{0.50, 0.50}),
		market("m3", "fair-game", []string{"A", "B"}, []float64{0.50, 0.50}),
	}}}
}

func TestScanDetectsAndSizes(t *testing.T) {
	svc := NewScanService(ScanDeps{Fetcher: NewMarketFetcher(arbSource(), nil, 200, 0, discard)}, discard)
	fixedClock(svc)

	scan, err := svc.Scan(context.Background(), ScanRequest{
		FetchRequest: FetchRequest{Categories: []string{"sports"}, MaxMarkets: 500},
		MinEdge:      0.01,
		Stake:        100,
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if scan.ID != "scan-1" || scan.MarketCount != 3 || scan.EventCount != 2 {
		t.Errorf("scan = %+v", scan)
	}
	if scan.Duration() != time.Second {
		t.Errorf("duration = %v", scan.Duration())
	}
	if len(scan.Opportunities) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(scan.Opportunities))
	}
	so := scan.Opportunities[0]
	if so.Opportunity.EventKey != "lakers-celtics" || so.Opportunity.Markets["Lakers"] != "m1" || so.Opportunity.Markets["Celtics"] != "m2" {
		t.Errorf("opportunity = %+v", so.Opportunity)
	}
	if len(so.Orders) != 2 || so.Orders[1].Size != 200 {
		t.Errorf("orders = %+v", so.Orders)
	}
}

func TestScanRejectsBadStakeBeforeFetching(t *testing.T) {
	src := arbSource()
	svc := NewScanService(ScanDeps{Fetcher: NewMarketFetcher(src, nil, 200, 0, discard)}, discard)

	_, err := svc.Scan(context.Background(), ScanRequest{FetchRequest: FetchRequest{MaxMarkets: 10}, Stake: 0})
	if !errors.Is(err, domain.ErrInvalidStake) {
		t.Errorf("err = %v, want ErrInvalidStake", err)
	}
	if len(src.queries) != 0 {
		t.Error("source was queried despite invalid stake")
	}
}

func TestScanRecordFansOut(t *testing.T) {
	scans := &memScanStore{err: errors.New("db down")}
	marketsStore := &memMarketStore{}
	bus := &memBus{}
	alerter := &countingAlerter{}
	archive := &memArchiver{}
	svc := NewScanService(ScanDeps{
		Fetcher:  NewMarketFetcher(arbSource(), nil, 200, 0, discard),
		Scans:    scans,
		Markets:  marketsStore,
		Bus:      bus,
		Alerter:  alerter,
		Archiver: archive,
	}, discard)
	fixedClock(svc)

	_, err := svc.Scan(context.Background(), ScanRequest{
		FetchRequest: FetchRequest{Categories: []string{"sports"}, MaxMarkets: 500},
		MinEdge:      0.01,
		Stake:        100,
		Record:       true,
	})
	if err != nil {
		t.Fatalf("side channel failures must not fail the scan: %v", err)
	}

	if marketsStore.upserted != 3 {
		t.Errorf("upserted %d markets, want 3", marketsStore.upserted)
	}
	if alerter.calls != 1 || len(archive.paths) != 1 {
		t.Errorf("alerter calls %d, archives %d", alerter.calls, len(archive.paths))
	}
	if len(bus.pubs) != 2 || bus.pubs[0].channel != domain.ChannelOpportunities || bus.pubs[1].channel != domain.ChannelScans {
		t.Fatalf("publishes = %+v", bus.pubs)
	}

	var opp map[string]any
	if err := json.Unmarshal([]byte(bus.pubs[0].payload), &opp); err != nil {
		t.Fatalf("decode opportunity: %v", err)
	}
	for _, field := range []string{"event_key", "total_cost", "edge", "best_prices", "markets", "orders"} {
		if _, ok := opp[field]; !ok {
			t.Errorf("published opportunity missing %q", field)
		}
	}

	var summary domain.ScanSummary
	if err := json.Unmarshal([]byte(bus.streams[domain.StreamScans][0]), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.ID != "scan-1" || summary.Opportunities != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestScanWithoutRecordSkipsSideChannels(t *testing.T) {
	bus := &memBus{}
	store := &memScanStore{}
	svc := NewScanService(ScanDeps{
		Fetcher: NewMarketFetcher(arbSource(), nil, 200, 0, discard),
		Scans:   store,
		Bus:     bus,
	}, discard)

	if _, err := svc.Scan(context.Background(), ScanRequest{FetchRequest: FetchRequest{Categories: []string{"sports"}, MaxMarkets: 10}, Stake: 10}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(bus.pubs) != 0 || len(store.scans) != 0 {
		t.Error("unrecorded scan reached side channels")
	}
}

func TestEvaluateEmptySnapshot(t *testing.T) {
	svc := NewScanService(ScanDeps{}, discard)
	scan, err := svc.Evaluate(nil, 0.01, 100)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if scan.MarketCount != 0 || len(scan.Opportunities) != 0 {
		t.Errorf("scan = %+v", scan)
	}
}
