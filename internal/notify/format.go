package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// FormatOpportunity renders a sized opportunity as a Markdown title and body.
// Outcome lines follow the opportunity's outcome order.
func FormatOpportunity(so domain.SizedOpportunity) (string, string) {
	opp := so.Opportunity
	title := fmt.Sprintf("Arb %.2f%% on %s", opp.Edge()*100, opp.EventKey)

	var b strings.Builder
	fmt.Fprintf(&b, "Total cost: %.4f\n", opp.TotalCost)
	fmt.Fprintf(&b, "Edge: %.4f\n", opp.Edge())
	if len(so.Orders) == 0 {
		for _, outcome := range opp.Outcomes {
			fmt.Fprintf(&b, "- %s @ %.4f (market %s)\n", outcome, opp.BestPrices[outcome], opp.Markets[outcome])
		}
		return title, b.String()
	}
	for _, o := range so.Orders {
		fmt.Fprintf(&b, "- %s @ %.4f x %.2f (market %s)\n", o.Outcome, o.LimitPrice, o.Size, o.MarketID)
	}
	return title, b.String()
}
