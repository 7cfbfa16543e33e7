package domain

import "time"

// Scan is the outcome of one pass of fetch, detect and size over a market
// snapshot.
type Scan struct {
	ID            string             `json:"id"`
	Categories    []string           `json:"categories"`
	MinEdge       float64            `json:"min_edge"`
	Stake         float64            `json:"stake"`
	MarketCount   int                `json:"market_count"`
	EventCount    int                `json:"event_count"`
	Opportunities []SizedOpportunity `json:"opportunities"`
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at"`
}

// Duration returns how long the scan took.
func (s Scan) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// BestEdge returns the edge of the top-ranked opportunity, or 0 when the scan
// found none.
func (s Scan) BestEdge() float64 {
	if len(s.Opportunities) == 0 {
		return 0
	}
	return s.Opportunities[0].Opportunity.Edge()
}
