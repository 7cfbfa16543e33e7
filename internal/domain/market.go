package domain

import (
	"fmt"
	"math"
	"strings"
)

// ungroupedKeyPrefix namespaces the event key of a market that carries no
// grouping metadata at all, so such markets never collide with each other.
const ungroupedKeyPrefix = "ungrouped:"

// Market is an immutable snapshot of one tradable instrument on the venue.
// Outcomes and OutcomePrices are positionally paired.
type Market struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Slug          string    `json:"slug,omitempty"`
	Category      string    `json:"category,omitempty"`
	EventID       string    `json:"event_id,omitempty"`
	EventSlug     string    `json:"event_slug,omitempty"`
	Outcomes      []string  `json:"outcomes"`
	OutcomePrices []float64 `json:"outcome_prices"`
	Volume        float64   `json:"volume,omitempty"`
	Active        bool      `json:"active"`
	Closed        bool      `json:"closed"`
}

// EventKey returns the identity used to group markets of the same real-world
// event: the event slug, else the event id, else the question text. A market
// with none of those is keyed by its own id.
func (m Market) EventKey() string {
	switch {
	case m.EventSlug != "":
		return m.EventSlug
	case m.EventID != "":
		return m.EventID
	case strings.TrimSpace(m.Question) != "":
		return m.Question
	default:
		return ungroupedKeyPrefix + m.ID
	}
}

// Validate checks the record-level invariants a market must satisfy before
// it can enter detection.
func (m Market) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedMarket)
	}
	if len(m.Outcomes) != len(m.OutcomePrices) {
		return fmt.Errorf("%w: market %s has %d outcomes but %d prices",
			ErrMalformedMarket, m.ID, len(m.Outcomes), len(m.OutcomePrices))
	}
	seen := make(map[string]struct{}, len(m.Outcomes))
	for i, o := range m.Outcomes {
		if _, dup := seen[o]; dup {
			return fmt.Errorf("%w: market %s repeats outcome %q", ErrMalformedMarket, m.ID, o)
		}
		seen[o] = struct{}{}
		if p := m.OutcomePrices[i]; math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: market %s has non-finite price for %q", ErrMalformedMarket, m.ID, o)
		}
	}
	return nil
}

// MarketQuery is the page request understood by a MarketSource.
type MarketQuery struct {
	Limit    int
	Offset   int
	Category string
	Active   bool
	Closed   bool
}
