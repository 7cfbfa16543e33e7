package arbitrage

import "github.com/alanyoungcy/polyarb/internal/domain"

// Quotes is the cheapest eligible price per outcome across an event's markets.
type Quotes struct {
	Prices   map[string]float64
	Markets  map[string]string
	Outcomes []string
}

// Empty reports whether no outcome had an eligible price.
func (q Quotes) Empty() bool {
	return len(q.Outcomes) == 0
}

// Total sums the selected prices in outcome order.
func (q Quotes) Total() float64 {
	var total float64
	for _, o := range q.Outcomes {
		total += q.Prices[o]
	}
	return total
}

// BestPrices scans every (market, outcome, price) triple in order and keeps
// the minimum price per outcome. Prices <= 0 mean no liquidity and are never
// selected. A strictly lower price replaces the current best; on a tie the
// first market seen keeps the outcome.
func BestPrices(markets []domain.Market) Quotes {
	q := Quotes{
		Prices:  make(map[string]float64),
		Markets: make(map[string]string),
	}
	for _, m := range markets {
		n := min(len(m.Outcomes), len(m.OutcomePrices))
		for i := 0; i < n; i++ {
			outcome, price := m.Outcomes[i], m.OutcomePrices[i]
			if !(price > 0) {
				continue
			}
			best, seen := q.Prices[outcome]
			if !seen {
				q.Outcomes = append(q.Outcomes, outcome)
			}
			if !seen || price < best {
				q.Prices[outcome] = price
				q.Markets[outcome] = m.ID
			}
		}
	}
	return q
}
