package polymarket

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

func TestAPIMarketToDomainMarket(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSlug   string
		wantID     string
		wantPrices []float64
	}{
		{
			name:       "double encoded",
			input:      `{"id":"101","question":"Lakers win?","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.45\",\"0.55\"]","eventSlug":"lakers-celtics"}`,
			wantSlug:   "lakers-celtics",
			wantPrices: []float64{0.45, 0.55},
		},
		{
			name:       "plain arrays snake case",
			input:      `{"id":102,"question":"q","outcomes":["Yes","No"],"outcomePrices":[0.3,0.6],"event_slug":"s","event_id":9}`,
			wantSlug:   "s",
			wantID:     "9",
			wantPrices: []float64{0.3, 0.6},
		},
		{
			name:       "event from events array",
			input:      `{"id":"103","outcomes":"[\"A\"]","outcomePrices":"[\"0.2\"]","events":[{"id":"77","slug":"final"}]}`,
			wantSlug:   "final",
			wantID:     "77",
			wantPrices: []float64{0.2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var am APIMarket
			if err := json.Unmarshal([]byte(tt.input), &am); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			m, err := am.ToDomainMarket()
			if err != nil {
				t.Fatalf("convert: %v", err)
			}
			if m.EventSlug != tt.wantSlug {
				t.Errorf("event slug = %q, want %q", m.EventSlug, tt.wantSlug)
			}
			if tt.wantID != "" && m.EventID != tt.wantID {
				t.Errorf("event id = %q, want %q", m.EventID, tt.wantID)
			}
			if len(m.OutcomePrices) != len(tt.wantPrices) {
				t.Fatalf("prices = %v, want %v", m.OutcomePrices, tt.wantPrices)
			}
			for i := range tt.wantPrices {
				if m.OutcomePrices[i] != tt.wantPrices[i] {
					t.Errorf("price %d = %v, want %v", i, m.OutcomePrices[i], tt.wantPrices[i])
				}
			}
		})
	}
}

func TestAPIMarketRejectsMalformed(t *testing.T) {
	inputs := map[string]string{
		"length mismatch": `{"id":"1","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.5\"]"}`,
		"bad price":       `{"id":"1","outcomes":"[\"Yes\"]","outcomePrices":"[\"abc\"]"}`,
		"missing prices":  `{"id":"1","outcomes":"[\"Yes\"]"}`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			var am APIMarket
			if err := json.Unmarshal([]byte(input), &am); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, err := am.ToDomainMarket(); !errors.Is(err, domain.ErrMalformedMarket) {
				t.Errorf("err = %v, want ErrMalformedMarket", err)
			}
		})
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"1034.25"`, 1034.25},
		{`""`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var f flexFloat
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if float64(f) != tt.want {
			t.Errorf("%s: got %v, want %v", tt.in, f, tt.want)
		}
	}
}
