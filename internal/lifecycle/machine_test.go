package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradefin/cfaam/internal/contracts"
)

var today = contracts.NewDate(2026, time.August, 28)

func activeAgreement() *contracts.Agreement {
	return &contracts.Agreement{
		Reference:           "CFAAM-2026-0042",
		ImporterName:        "Acme Imports Ltd",
		SubmittedDate:       contracts.NewDate(2026, time.July, 1),
		ReturnsFrequency:    "Quarterly",
		NextDueDate:         contracts.NewDate(2026, time.October, 14),
		ComplianceAlertDate: contracts.NewDate(2026, time.October, 7),
		InitialAlertDate:    contracts.NewDate(2026, time.October, 7),
		Status:              contracts.StatusActive,
	}
}

func kinds(actions []Action) []contracts.NotificationKind {
	out := make([]contracts.NotificationKind, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Kind)
	}
	return out
}

func TestInitialAlertFiresOnAlertDate(t *testing.T) {
	a := activeAgreement()
	a.InitialAlertDate = today

	actions := Evaluate(a, today)
	require.Len(t, actions, 1)
	assert.Equal(t, contracts.KindInitialAlert, actions[0].Kind)
	assert.Equal(t, contracts.StatusInitialAlertSent, actions[0].NewStatus)
	assert.True(t, actions[0].SetReminderSent)
}

func TestInitialAlertFiresWhenAlertDatePassed(t *testing.T) {
	a := activeAgreement()
	a.InitialAlertDate = today.AddDays(-3)
	a.NextDueDate = today.AddDays(4)

	actions := Evaluate(a, today)
	require.Len(t, actions, 1)
	assert.Equal(t, contracts.KindInitialAlert, actions[0].Kind)
}

func TestInitialAlertSuppressedByFlag(t *testing.T) {
	a := activeAgreement()
	a.InitialAlertDate = today
	a.ReminderSent = true

	assert.Empty(t, Evaluate(a, today))
}

func TestInitialAlertNotDueYet(t *testing.T) {
	a := activeAgreement()
	a.InitialAlertDate = today.AddDays(1)

	assert.Empty(t, Evaluate(a, today))
}

func TestNoDeadlinesNoActions(t *testing.T) {
	// Frequency was not recognized at ingestion: no computed dates at all.
	a := activeAgreement()
	a.NextDueDate = contracts.Date{}
	a.ComplianceAlertDate = contracts.Date{}
	a.InitialAlertDate = contracts.Date{}

	assert.Empty(t, Evaluate(a, today))
}

func TestOverdueTierWithinWeek(t *testing.T) {
	a := activeAgreement()
	a.Status = contracts.StatusInitialAlertSent
	a.ReminderSent = true
	a.NextDueDate = today.AddDays(-3)

	actions := Evaluate(a, today)
	require.Len(t, actions, 1)
	assert.Equal(t, contracts.KindOverdueEscalation, actions[0].Kind)
	assert.Equal(t, contracts.StatusOverdue, actions[0].NewStatus)
	assert.Equal(t, 3, actions[0].DaysOverdue)
}

func TestFinalEscalationAtSevenDays(t *testing.T) {
	a := activeAgreement()
	a.Status = contracts.StatusOverdue
	a.ReminderSent = true
	a.NextDueDate = today.AddDays(-10)

	actions := Evaluate(a, today)
	require.Len(t, actions, 1)
	assert.Equal(t, contracts.KindFinalEscalation, actions[0].Kind)
	assert.Equal(t, contracts.StatusEscalated, actions[0].NewStatus)
	assert.Equal(t, 10, actions[0].DaysOverdue)
}

func TestFinalEscalationSkipsOverdueTier(t *testing.T) {
	// 7+ days overdue goes straight to Escalated_Compliance even from
	// Initial_Alert_Sent.
	a := activeAgreement()
	a.Status = contracts.StatusInitialAlertSent
	a.ReminderSent = true
	a.NextDueDate = today.AddDays(-7)

	actions := Evaluate(a, today)
	require.Len(t, actions, 1)
	assert.Equal(t, contracts.KindFinalEscalation, actions[0].Kind)
}

func TestOverdueTierNotRepeated(t *testing.T) {
	a := activeAgreement()
	a.Status = contracts.StatusOverdue
	a.ReminderSent = true
	a.NextDueDate = today.AddDays(-3)

	assert.Empty(t, Evaluate(a, today))
}

func TestEscalatedIsTerminal(t *testing.T) {
	a := activeAgreement()
	a.Status = contracts.StatusEscalated
	a.ReminderSent = true
	a.NextDueDate = today.AddDays(-30)

	assert.Empty(t, Evaluate(a, today))
}

func TestDueTodayIsNotOverdue(t *testing.T) {
	a := activeAgreement()
	a.Status = contracts.StatusInitialAlertSent
	a.ReminderSent = true
	a.NextDueDate = today

	assert.Empty(t, Evaluate(a, today))
}

func TestExpiryReminderMilestones(t *testing.T) {
	for _, lead := range ExpiryLeadDays {
		a := activeAgreement()
		a.ReminderSent = true
		a.ExpiryDate = today.AddDays(lead)

		actions := Evaluate(a, today)
		require.Len(t, actions, 1, "lead %d", lead)
		assert.Equal(t, contracts.KindExpiryReminder, actions[0].Kind)
		assert.Equal(t, lead, actions[0].DaysUntilExpiry)
		assert.True(t, actions[0].SetLastNotified)
		assert.Empty(t, actions[0].NewStatus, "expiry reminders must not alter status")
		assert.False(t, actions[0].SetReminderSent, "expiry reminders must not touch the initial alert flag")
	}
}

func TestExpiryReminderOffMilestone(t *testing.T) {
	for _, lead := range []int{31, 29, 16, 14, 6, 4, 1, 0, -1} {
		a := activeAgreement()
		a.ReminderSent = true
		a.ExpiryDate = today.AddDays(lead)

		assert.Empty(t, Evaluate(a, today), "lead %d", lead)
	}
}

func TestExpiryReminderSameDayGuard(t *testing.T) {
	a := activeAgreement()
	a.ReminderSent = true
	a.ExpiryDate = today.AddDays(30)
	a.LastNotified = today

	assert.Empty(t, Evaluate(a, today))
}

func TestExpiryReminderIgnoresLifecycleStatus(t *testing.T) {
	a := activeAgreement()
	a.ReminderSent = true
	a.Status = contracts.StatusEscalated
	a.ExpiryDate = today.AddDays(15)
	a.NextDueDate = today.AddDays(-30)

	actions := Evaluate(a, today)
	require.Len(t, actions, 1)
	assert.Equal(t, contracts.KindExpiryReminder, actions[0].Kind)
}

func TestIndependentActionsSameRun(t *testing.T) {
	// Overdue escalation and expiry reminder can both fire for one record.
	a := activeAgreement()
	a.Status = contracts.StatusInitialAlertSent
	a.ReminderSent = true
	a.NextDueDate = today.AddDays(-3)
	a.ExpiryDate = today.AddDays(5)

	actions := Evaluate(a, today)
	assert.ElementsMatch(t,
		[]contracts.NotificationKind{contracts.KindOverdueEscalation, contracts.KindExpiryReminder},
		kinds(actions))
}

func TestEvaluateIdempotentAfterApply(t *testing.T) {
	// Applying the effects of each action and re-evaluating the same day
	// must yield nothing further.
	a := activeAgreement()
	a.InitialAlertDate = today.AddDays(-1)
	a.NextDueDate = today.AddDays(-3)
	a.ExpiryDate = today.AddDays(5)

	actions := Evaluate(a, today)
	require.NotEmpty(t, actions)

	for _, action := range actions {
		if action.SetReminderSent {
			a.ReminderSent = true
		}
		if action.NewStatus != "" && CanTransition(a.Status, action.NewStatus) {
			a.Status = action.NewStatus
		}
		if action.SetLastNotified {
			a.LastNotified = today
		}
	}

	assert.Empty(t, Evaluate(a, today))
}

func TestCanTransitionMonotonic(t *testing.T) {
	order := []contracts.Status{
		contracts.StatusActive,
		contracts.StatusInitialAlertSent,
		contracts.StatusOverdue,
		contracts.StatusEscalated,
	}

	for i, from := range order {
		for j, to := range order {
			want := j > i && from != contracts.StatusEscalated
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}
