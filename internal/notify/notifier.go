// Package notify pushes arbitrage alerts to chat channels. Alerts are
// dispatched to every registered sender (Telegram, Discord) and a single
// sender failure does not stop delivery to the others.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches alerts to one or more Senders. Opportunities thinner
// than minEdge are not announced.
type Notifier struct {
	senders []Sender
	minEdge float64
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
func NewNotifier(senders []Sender, minEdge float64, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		minEdge: minEdge,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether any sender is registered.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.senders) > 0
}

// NotifyScan announces every opportunity of scan whose edge reaches the
// notifier threshold, one message per opportunity in rank order.
func (n *Notifier) NotifyScan(ctx context.Context, scan domain.Scan) error {
	if !n.Enabled() {
		return nil
	}

	var errs []string
	sent := 0
	for _, so := range scan.Opportunities {
		if so.Opportunity.Edge() < n.minEdge {
			continue
		}
		title, body := FormatOpportunity(so)
		if err := n.dispatch(ctx, title, body); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		sent++
	}

	n.logger.DebugContext(ctx, "scan notifications sent",
		slog.String("scan_id", scan.ID),
		slog.Int("sent", sent),
	)
	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
