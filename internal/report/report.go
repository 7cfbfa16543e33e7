// Package report renders sized opportunities as the plain-text block the
// scan command prints.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// NoOpportunities is printed when a scan finds nothing.
const NoOpportunities = "No arbitrage opportunities found."

var separator = strings.Repeat("-", 40)

// FormatOpportunity renders one opportunity and its orders.
func FormatOpportunity(so domain.SizedOpportunity) string {
	opp := so.Opportunity
	lines := []string{
		"Event: " + opp.EventKey,
		fmt.Sprintf("Total cost: %.4f", opp.TotalCost),
		fmt.Sprintf("Edge: %.4f", opp.Edge()),
		"Orders:",
	}
	for _, o := range so.Orders {
		lines = append(lines, fmt.Sprintf("  - Outcome: %s | Limit: %.4f | Size: %.2f", o.Outcome, o.LimitPrice, o.Size))
	}
	return strings.Join(lines, "\n")
}

// Write prints every opportunity followed by a separator line, or the
// NoOpportunities line when the list is empty.
func Write(w io.Writer, opps []domain.SizedOpportunity) error {
	if len(opps) == 0 {
		_, err := fmt.Fprintln(w, NoOpportunities)
		return err
	}
	for _, so := range opps {
		if _, err := fmt.Fprintf(w, "%s\n%s\n", FormatOpportunity(so), separator); err != nil {
			return err
		}
	}
	return nil
}
