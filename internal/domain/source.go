package domain

import "context"

// MarketSource yields one page of market records from the venue.
type MarketSource interface {
	ListMarkets(ctx context.Context, q MarketQuery) ([]Market, error)
}
