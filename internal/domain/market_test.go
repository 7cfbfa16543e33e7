package domain

import (
	"errors"
	"math"
	"testing"
)

func TestMarketEventKey(t *testing.T) {
	tests := []struct {
		name   string
		market Market
		want   string
	}{
		{"slug wins", Market{ID: "1", EventSlug: "nba-final", EventID: "77", Question: "q"}, "nba-final"},
		{"event id next", Market{ID: "1", EventID: "77", Question: "q"}, "77"},
		{"question fallback", Market{ID: "1", Question: "Who wins?"}, "Who wins?"},
		{"blank question", Market{ID: "1", Question: "   "}, "ungrouped:1"},
		{"nothing", Market{ID: "42"}, "ungrouped:42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.market.EventKey(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarketValidate(t *testing.T) {
	tests := []struct {
		name    string
		market  Market
		wantErr bool
	}{
		{"ok", Market{ID: "1", Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{0.4, 0.6}}, false},
		{"no outcomes", Market{ID: "1"}, false},
		{"missing id", Market{Outcomes: []string{"Yes"}, OutcomePrices: []float64{0.4}}, true},
		{"length mismatch", Market{ID: "1", Outcomes: []string{"Yes", "No"}, OutcomePrices: []float64{0.4}}, true},
		{"duplicate outcome", Market{ID: "1", Outcomes: []string{"Yes", "Yes"}, OutcomePrices: []float64{0.4, 0.5}}, true},
		{"nan price", Market{ID: "1", Outcomes: []string{"Yes"}, OutcomePrices: []float64{math.NaN()}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.market.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedMarket) {
				t.Errorf("error %v does not wrap ErrMalformedMarket", err)
			}
		})
	}
}
