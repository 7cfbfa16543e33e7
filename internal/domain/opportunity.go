package domain

import "encoding/json"

// ArbOpportunity is the detection result for one event whose best prices
// across all outcomes sum to less than 1.0 by at least the configured edge.
// It is never mutated after detection.
type ArbOpportunity struct {
	EventKey  string
	TotalCost float64
	// BestPrices maps outcome label to the lowest eligible price seen.
	BestPrices map[string]float64
	// Markets maps outcome label to the id of the market offering BestPrices.
	Markets map[string]string
	// Outcomes lists the outcome labels in first-seen order.
	Outcomes []string
}

// Edge is the theoretical risk-free profit fraction of the fully hedged bundle.
func (o ArbOpportunity) Edge() float64 {
	return 1.0 - o.TotalCost
}

// Order is a limit order for one outcome of an arbitrage bundle.
type Order struct {
	Outcome    string  `json:"outcome"`
	MarketID   string  `json:"market_id"`
	LimitPrice float64 `json:"limit_price"`
	Size       float64 `json:"size"`
}

// Notional returns the amount risked on this order.
func (o Order) Notional() float64 {
	return o.Size * o.LimitPrice
}

// SizedOpportunity pairs an opportunity with the orders that capture it for
// a given stake. This is the value handed to renderers and API responses.
type SizedOpportunity struct {
	Opportunity ArbOpportunity
	Orders      []Order
}

type sizedOpportunityJSON struct {
	EventKey   string             `json:"event_key"`
	TotalCost  float64            `json:"total_cost"`
	Edge       float64            `json:"edge"`
	BestPrices map[string]float64 `json:"best_prices"`
	Markets    map[string]string  `json:"markets"`
	Outcomes   []string           `json:"outcomes"`
	Orders     []Order            `json:"orders"`
}

// MarshalJSON renders the flat field set consumed by API clients.
func (s SizedOpportunity) MarshalJSON() ([]byte, error) {
	orders := s.Orders
	if orders == nil {
		orders = []Order{}
	}
	return json.Marshal(sizedOpportunityJSON{
		EventKey:   s.Opportunity.EventKey,
		TotalCost:  s.Opportunity.TotalCost,
		Edge:       s.Opportunity.Edge(),
		BestPrices: s.Opportunity.BestPrices,
		Markets:    s.Opportunity.Markets,
		Outcomes:   s.Opportunity.Outcomes,
		Orders:     orders,
	})
}

// UnmarshalJSON restores a SizedOpportunity from its flat rendering. Edge is
// derived and therefore ignored.
func (s *SizedOpportunity) UnmarshalJSON(data []byte) error {
	var raw sizedOpportunityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Opportunity = ArbOpportunity{
		EventKey:   raw.EventKey,
		TotalCost:  raw.TotalCost,
		BestPrices: raw.BestPrices,
		Markets:    raw.Markets,
		Outcomes:   raw.Outcomes,
	}
	s.Orders = raw.Orders
	return nil
}
