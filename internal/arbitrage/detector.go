package arbitrage

import (
	"log/slog"
	"sort"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// DefaultMinEdge is the minimum edge used when none is configured.
const DefaultMinEdge = 0.01

// Config configures a Detector.
type Config struct {
	// MinEdge is the smallest 1 - total_cost accepted as an opportunity. The
	// comparison is an exact float64 >=.
	MinEdge float64
}

// Detector finds events whose best outcome prices sum below 1.0.
type Detector struct {
	minEdge float64
	logger  *slog.Logger
}

// NewDetector creates a Detector for cfg. A nil logger disables debug output.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{
		minEdge: cfg.MinEdge,
		logger:  logger.With(slog.String("component", "arb_detector")),
	}
}

// MinEdge returns the configured threshold.
func (d *Detector) MinEdge() float64 {
	return d.minEdge
}

// Detect groups markets by event and returns every qualifying opportunity
// sorted by ascending total cost. Equal costs keep the order in which their
// events first appeared in markets.
func (d *Detector) Detect(markets []domain.Market) []domain.ArbOpportunity {
	return d.DetectEvents(GroupByEvent(markets))
}

// DetectEvents is Detect for markets that were already grouped.
func (d *Detector) DetectEvents(groups []EventGroup) []domain.ArbOpportunity {
	var opps []domain.ArbOpportunity
	for _, g := range groups {
		q := BestPrices(g.Markets)
		if q.Empty() {
			d.logger.Debug("event has no eligible prices",
				slog.String("event", g.Key),
				slog.Int("markets", len(g.Markets)),
			)
			continue
		}
		total := q.Total()
		edge := 1.0 - total
		if edge < d.minEdge {
			continue
		}
		d.logger.Debug("opportunity detected",
			slog.String("event", g.Key),
			slog.Float64("total_cost", total),
			slog.Float64("edge", edge),
		)
		opps = append(opps, domain.ArbOpportunity{
			EventKey:   g.Key,
			TotalCost:  total,
			BestPrices: q.Prices,
			Markets:    q.Markets,
			Outcomes:   q.Outcomes,
		})
	}
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].TotalCost < opps[j].TotalCost
	})
	return opps
}
