package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

func TestWrite(t *testing.T) {
	opps := []domain.SizedOpportunity{{
		Opportunity: domain.ArbOpportunity{EventKey: "lakers-celtics", TotalCost: 0.95},
		Orders: []domain.Order{
			{Outcome: "Lakers", LimitPrice: 0.45, Size: 100 / 0.45},
			{Outcome: "Celtics", LimitPrice: 0.50, Size: 200},
		},
	}}

	var buf bytes.Buffer
	if err := Write(&buf, opps); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := strings.Join([]string{
		"Event: lakers-celtics",
		"Total cost: 0.9500",
		"Edge: 0.0500",
		"Orders:",
		"  - Outcome: Lakers | Limit: 0.4500 | Size: 222.22",
		"  - Outcome: Celtics | Limit: 0.5000 | Size: 200.00",
		"----------------------------------------",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != NoOpportunities+"\n" {
		t.Errorf("got %q", got)
	}
}
