package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

func TestListMarketsSendsQueryAndDropsBadRecords(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("path = %s, want /markets", r.URL.Path)
		}
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"1","question":"A?","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.4\",\"0.5\"]","eventSlug":"e"},
			{"id":"2","question":"B?","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.4\"]","eventSlug":"e"}
		]`))
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL + "/")
	markets, err := client.ListMarkets(context.Background(), domain.MarketQuery{
		Limit: 200, Offset: 400, Category: "sports", Active: true,
	})
	if err != nil {
		t.Fatalf("list markets: %v", err)
	}

	want := map[string]string{"limit": "200", "offset": "400", "category": "sports", "active": "true", "closed": "false"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("query %s = %q, want %q", k, got[k], v)
		}
	}
	if len(markets) != 1 || markets[0].ID != "1" {
		t.Fatalf("markets = %+v, want only id 1", markets)
	}
}

func TestListMarketsSkipsUndecodableRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"good","question":"A?","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.4\",\"0.5\"]","eventSlug":"e"},
			{"id":"bad-list","outcomes":"[\"Yes\",","outcomePrices":"[\"0.4\",\"0.5\"]"},
			{"id":"bad-volume","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.4\",\"0.5\"]","volume":"lots"},
			{"id":7,"question":"B?","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.3\",\"0.6\"]","eventSlug":"e"}
		]`))
	}))
	defer srv.Close()

	markets, err := NewGammaClient(srv.URL).ListMarkets(context.Background(), domain.MarketQuery{Limit: 10})
	if err != nil {
		t.Fatalf("list markets: %v", err)
	}
	if len(markets) != 2 || markets[0].ID != "good" || markets[1].ID != "7" {
		t.Fatalf("markets = %+v, want good and 7", markets)
	}
}

func TestListMarketsRejectsNonArrayBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	if _, err := NewGammaClient(srv.URL).ListMarkets(context.Background(), domain.MarketQuery{Limit: 1}); err == nil {
		t.Fatal("expected decode error for non-array body")
	}
}

func TestListMarketsOmitsEmptyCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["category"]; ok {
			t.Errorf("category sent for empty filter")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	markets, err := NewGammaClient(srv.URL).ListMarkets(context.Background(), domain.MarketQuery{Limit: 10})
	if err != nil {
		t.Fatalf("list markets: %v", err)
	}
	if len(markets) != 0 {
		t.Errorf("got %d markets", len(markets))
	}
}

func TestListMarketsMapsHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusForbidden, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewGammaClient(srv.URL).ListMarkets(context.Background(), domain.MarketQuery{Limit: 1})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

type countingLimiter struct {
	waits int
	err   error
}

func (c *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (c *countingLimiter) Wait(ctx context.Context, key string) error {
	c.waits++
	return c.err
}

func TestListMarketsWaitsForLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rl := &countingLimiter{}
	client := NewGammaClient(srv.URL, WithRateLimiter(rl), WithTimeout(time.Second))
	if _, err := client.ListMarkets(context.Background(), domain.MarketQuery{Limit: 1}); err != nil {
		t.Fatalf("list markets: %v", err)
	}
	if rl.waits != 1 {
		t.Errorf("limiter waited %d times, want 1", rl.waits)
	}

	rl.err = context.DeadlineExceeded
	if _, err := client.ListMarkets(context.Background(), domain.MarketQuery{Limit: 1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestGetMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/55" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"55","question":"Q","outcomes":["Yes","No"],"outcomePrices":["0.1","0.8"]}`))
	}))
	defer srv.Close()

	m, err := NewGammaClient(srv.URL).GetMarket(context.Background(), "55")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if m.ID != "55" || m.EventKey() != "Q" {
		t.Errorf("market = %+v", m)
	}
}
