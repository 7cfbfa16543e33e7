package arbitrage

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// ValidateStake reports domain.ErrInvalidStake unless stake is a positive,
// finite amount.
func ValidateStake(stake float64) error {
	if !(stake > 0) || math.IsInf(stake, 1) {
		return fmt.Errorf("%w (got %v)", domain.ErrInvalidStake, stake)
	}
	return nil
}

// BuildOrders returns one limit order per outcome of opp, each sized so that
// stake is risked on every leg: size = stake / limit_price.
func BuildOrders(opp domain.ArbOpportunity, stake float64) ([]domain.Order, error) {
	if err := ValidateStake(stake); err != nil {
		return nil, fmt.Errorf("arbitrage: build orders for %q: %w", opp.EventKey, err)
	}
	orders := make([]domain.Order, 0, len(opp.Outcomes))
	for _, outcome := range opp.Outcomes {
		price := opp.BestPrices[outcome]
		orders = append(orders, domain.Order{
			Outcome:    outcome,
			MarketID:   opp.Markets[outcome],
			LimitPrice: price,
			Size:       stake / price,
		})
	}
	return orders, nil
}

// Size builds the orders for every opportunity in opps, preserving order.
func Size(opps []domain.ArbOpportunity, stake float64) ([]domain.SizedOpportunity, error) {
	out := make([]domain.SizedOpportunity, 0, len(opps))
	for _, opp := range opps {
		orders, err := BuildOrders(opp, stake)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.SizedOpportunity{Opportunity: opp, Orders: orders})
	}
	return out, nil
}
