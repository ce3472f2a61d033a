// Package notify builds and delivers compliance reminder messages. The
// dispatcher is the only component that talks to the mail transport; the
// scanner decides eligibility and owns state updates.
package notify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/internal/lifecycle"
	"github.com/tradefin/cfaam/pkg/logger"
)

// ErrNoRecipient is returned when a record carries no recipient email.
// The scanner logs it and continues without marking the record as sent.
var ErrNoRecipient = errors.New("agreement has no recipient email")

// Dispatcher renders the per-kind message templates and sends them through
// the configured mail transport, throttled by a shared rate limiter so a
// large scan does not trip provider limits.
type Dispatcher struct {
	mailer  Mailer
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewDispatcher creates a dispatcher sending at most sendsPerSecond messages.
func NewDispatcher(mailer Mailer, sendsPerSecond float64, log *logger.Logger) *Dispatcher {
	if sendsPerSecond <= 0 {
		sendsPerSecond = 1
	}
	return &Dispatcher{
		mailer:  mailer,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
		log:     log,
	}
}

// Dispatch sends one notification of the given kind for the agreement.
// It returns ErrNoRecipient without touching the transport when the record
// has no recipient email.
func (d *Dispatcher) Dispatch(ctx context.Context, a *contracts.Agreement, action lifecycle.Action, today contracts.Date) error {
	if a.RecipientEmail == "" {
		return fmt.Errorf("dispatch %s for %s: %w", action.Kind, a.Reference, ErrNoRecipient)
	}

	subject, body := render(a, action, today)

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("dispatch %s for %s: %w", action.Kind, a.Reference, err)
	}

	if err := d.mailer.Send(ctx, a.RecipientEmail, subject, body); err != nil {
		return fmt.Errorf("dispatch %s for %s: %w", action.Kind, a.Reference, err)
	}

	d.log.WithFields(map[string]interface{}{
		"cfaam_ref": a.Reference,
		"kind":      string(action.Kind),
		"to":        a.RecipientEmail,
	}).Info("Notification sent")

	return nil
}

// render builds the subject and body for a notification. Every compliance
// message carries the importer name, the CFAAM reference, the relevant
// due/expiry date, the days remaining or overdue, and the compliance
// condition text verbatim.
func render(a *contracts.Agreement, action lifecycle.Action, today contracts.Date) (subject, body string) {
	switch action.Kind {
	case contracts.KindInitialAlert:
		daysLeft := today.DaysUntil(a.NextDueDate)
		subject = fmt.Sprintf("Compliance reminder: %s report due %s", a.Reference, a.NextDueDate)
		body = fmt.Sprintf(
			"The %s compliance report for agreement %s (%s) is due on %s (%d day(s) remaining).\n\nCondition:\n%s\n",
			a.ReturnsFrequency, a.Reference, a.ImporterName, a.NextDueDate, daysLeft, a.ConditionText,
		)

	case contracts.KindOverdueEscalation:
		subject = fmt.Sprintf("OVERDUE: %s compliance report not received", a.Reference)
		body = fmt.Sprintf(
			"The compliance report for agreement %s (%s) was due on %s and is now %d day(s) overdue. The Head of Trade Finance has been notified.\n\nCondition:\n%s\n",
			a.Reference, a.ImporterName, a.NextDueDate, action.DaysOverdue, a.ConditionText,
		)

	case contracts.KindFinalEscalation:
		subject = fmt.Sprintf("ESCALATION: %s referred to Compliance", a.Reference)
		body = fmt.Sprintf(
			"The compliance report for agreement %s (%s) was due on %s and is %d day(s) overdue. This item has been escalated to the Head of Compliance / Risk Committee.\n\nCondition:\n%s\n",
			a.Reference, a.ImporterName, a.NextDueDate, action.DaysOverdue, a.ConditionText,
		)

	case contracts.KindExpiryReminder:
		subject = fmt.Sprintf("Facility expiry in %d day(s): %s", action.DaysUntilExpiry, a.Reference)
		body = fmt.Sprintf(
			"The facility for agreement %s (%s) expires on %s, %d day(s) from today.\n\nCondition:\n%s\n",
			a.Reference, a.ImporterName, a.ExpiryDate, action.DaysUntilExpiry, a.ConditionText,
		)

	default:
		subject = fmt.Sprintf("Compliance notification: %s", a.Reference)
		body = fmt.Sprintf("Agreement %s (%s) requires attention.\n\nCondition:\n%s\n",
			a.Reference, a.ImporterName, a.ConditionText)
	}

	return subject, body
}
