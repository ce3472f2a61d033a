// Package lifecycle implements the compliance state machine:
//
//	Active → Initial_Alert_Sent → Overdue → Escalated_Compliance
//
// Overdue and Escalated_Compliance are also reachable directly from earlier
// states depending on elapsed time, and Escalated_Compliance is terminal.
// Evaluation is pure: the logical "today" is an explicit parameter, fixed for
// a whole scan run.
package lifecycle

import "github.com/tradefin/cfaam/internal/contracts"

// Escalation tier boundary: records at least this many days past their due
// date receive the final escalation notice.
const FinalEscalationDays = 7

// ExpiryLeadDays are the expiry-reminder milestones: a reminder is sent when
// the facility expiry is exactly this many days away.
var ExpiryLeadDays = []int{30, 15, 5}

// Action is one eligible side effect for a record on a given day. Actions
// are independent: a record may receive both an escalation and an expiry
// reminder in the same run. State updates are applied only after the
// corresponding notification dispatch succeeds.
type Action struct {
	Kind contracts.NotificationKind

	// Lifecycle effect, zero-valued for expiry reminders.
	NewStatus       contracts.Status
	SetReminderSent bool

	// SetLastNotified marks the same-day guard for expiry reminders.
	SetLastNotified bool

	// Context for notification templates.
	DaysOverdue     int
	DaysUntilExpiry int
}

// Evaluate returns the actions a record is eligible for on the given day,
// decided against the record snapshot as loaded from the store. Re-running
// Evaluate after the actions have been applied and persisted yields nothing,
// which is what makes scan runs idempotent per logical day.
func Evaluate(a *contracts.Agreement, today contracts.Date) []Action {
	var actions []Action

	if act, ok := initialAlert(a, today); ok {
		actions = append(actions, act)
	}
	if act, ok := escalation(a, today); ok {
		actions = append(actions, act)
	}
	if act, ok := expiryReminder(a, today); ok {
		actions = append(actions, act)
	}

	return actions
}

// initialAlert fires once per record, when the anchored initial alert date
// has arrived and the one-time flag is still clear.
func initialAlert(a *contracts.Agreement, today contracts.Date) (Action, bool) {
	if a.ReminderSent || a.InitialAlertDate.IsZero() {
		return Action{}, false
	}
	if a.InitialAlertDate.After(today) {
		return Action{}, false
	}
	return Action{
		Kind:            contracts.KindInitialAlert,
		NewStatus:       contracts.StatusInitialAlertSent,
		SetReminderSent: true,
	}, true
}

// escalation evaluates the overdue tiers. Only records strictly past their
// due date are considered, and Escalated_Compliance never escalates again.
func escalation(a *contracts.Agreement, today contracts.Date) (Action, bool) {
	if a.NextDueDate.IsZero() || a.Status == contracts.StatusEscalated {
		return Action{}, false
	}
	if !a.NextDueDate.Before(today) {
		return Action{}, false
	}

	daysOverdue := a.NextDueDate.DaysUntil(today)
	switch {
	case daysOverdue >= FinalEscalationDays:
		return Action{
			Kind:        contracts.KindFinalEscalation,
			NewStatus:   contracts.StatusEscalated,
			DaysOverdue: daysOverdue,
		}, true
	case daysOverdue > 0 && a.Status != contracts.StatusOverdue:
		return Action{
			Kind:        contracts.KindOverdueEscalation,
			NewStatus:   contracts.StatusOverdue,
			DaysOverdue: daysOverdue,
		}, true
	default:
		return Action{}, false
	}
}

// expiryReminder fires at the fixed lead-time milestones, at most once per
// calendar day per record, regardless of lifecycle status. Expiry reminders
// never alter status and deliberately do not touch the one-time initial
// alert flag: the guards are independent per notification kind.
func expiryReminder(a *contracts.Agreement, today contracts.Date) (Action, bool) {
	if a.ExpiryDate.IsZero() {
		return Action{}, false
	}
	if a.LastNotified.Equal(today) {
		return Action{}, false
	}

	daysUntil := today.DaysUntil(a.ExpiryDate)
	for _, lead := range ExpiryLeadDays {
		if daysUntil == lead {
			return Action{
				Kind:            contracts.KindExpiryReminder,
				SetLastNotified: true,
				DaysUntilExpiry: daysUntil,
			}, true
		}
	}
	return Action{}, false
}

// CanTransition reports whether moving from one status to another respects
// lifecycle monotonicity.
func CanTransition(from, to contracts.Status) bool {
	if from == contracts.StatusEscalated {
		return false
	}
	return to.Rank() > from.Rank()
}
