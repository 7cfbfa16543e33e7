// Package arbitrage implements the single-venue event arbitrage engine:
// grouping markets into events, selecting the cheapest price per outcome
// across an event's markets, ranking events whose outcome bundle costs less
// than 1.0, and sizing the hedge orders for a stake.
//
// Everything in this package is a pure function of its inputs and is safe
// for concurrent use on independent snapshots.
package arbitrage

import "github.com/alanyoungcy/polyarb/internal/domain"

// EventGroup is the ordered set of markets that share one event key.
type EventGroup struct {
	Key     string
	Markets []domain.Market
}

// GroupByEvent partitions markets by domain.Market.EventKey. Groups are
// returned in order of first appearance of their key and markets keep their
// input order within a group.
func GroupByEvent(markets []domain.Market) []EventGroup {
	index := make(map[string]int)
	var groups []EventGroup
	for _, m := range markets {
		key := m.EventKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, EventGroup{Key: key})
		}
		groups[i].Markets = append(groups[i].Markets, m)
	}
	return groups
}
