package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/internal/lifecycle"
	"github.com/tradefin/cfaam/pkg/logger"
)

type captureMailer struct {
	to      string
	subject string
	body    string
	err     error
	sends   int
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.sends++
	if m.err != nil {
		return m.err
	}
	m.to = to
	m.subject = subject
	m.body = body
	return nil
}

func testAgreement() *contracts.Agreement {
	return &contracts.Agreement{
		Reference:        "CFAAM-2026-0042",
		ImporterName:     "Acme Imports Ltd",
		ReturnsFrequency: "Quarterly",
		NextDueDate:      contracts.NewDate(2026, time.September, 4),
		ExpiryDate:       contracts.NewDate(2026, time.September, 27),
		ConditionText:    "Quarterly returns must be submitted within 14 days of quarter end.",
		RecipientEmail:   "ops@example.com",
	}
}

func TestDispatchInitialAlertContent(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(mailer, 100, logger.NewNop())

	a := testAgreement()
	today := contracts.NewDate(2026, time.August, 28)

	err := d.Dispatch(context.Background(), a, lifecycle.Action{Kind: contracts.KindInitialAlert}, today)
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", mailer.to)
	assert.Contains(t, mailer.subject, "CFAAM-2026-0042")
	assert.Contains(t, mailer.subject, "2026-09-04")
	assert.Contains(t, mailer.body, "Acme Imports Ltd")
	assert.Contains(t, mailer.body, "Quarterly")
	assert.Contains(t, mailer.body, "7 day(s) remaining")
	assert.Contains(t, mailer.body, a.ConditionText)
}

func TestDispatchEscalationContent(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(mailer, 100, logger.NewNop())

	a := testAgreement()
	today := contracts.NewDate(2026, time.September, 14)
	action := lifecycle.Action{Kind: contracts.KindFinalEscalation, DaysOverdue: 10}

	require.NoError(t, d.Dispatch(context.Background(), a, action, today))

	assert.Contains(t, mailer.subject, "ESCALATION")
	assert.Contains(t, mailer.body, "10 day(s) overdue")
	assert.Contains(t, mailer.body, "Head of Compliance")
	assert.Contains(t, mailer.body, a.ConditionText)
}

func TestDispatchExpiryReminderContent(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(mailer, 100, logger.NewNop())

	a := testAgreement()
	today := contracts.NewDate(2026, time.September, 12)
	action := lifecycle.Action{Kind: contracts.KindExpiryReminder, DaysUntilExpiry: 15}

	require.NoError(t, d.Dispatch(context.Background(), a, action, today))

	assert.Contains(t, mailer.subject, "expiry in 15 day(s)")
	assert.Contains(t, mailer.body, "2026-09-27")
	assert.Contains(t, mailer.body, a.ConditionText)
}

func TestDispatchNoRecipient(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(mailer, 100, logger.NewNop())

	a := testAgreement()
	a.RecipientEmail = ""
	today := contracts.NewDate(2026, time.August, 28)

	err := d.Dispatch(context.Background(), a, lifecycle.Action{Kind: contracts.KindInitialAlert}, today)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Equal(t, 0, mailer.sends, "transport must not be touched without a recipient")
}

func TestDispatchTransportError(t *testing.T) {
	mailer := &captureMailer{err: errors.New("451 temporary failure")}
	d := NewDispatcher(mailer, 100, logger.NewNop())

	a := testAgreement()
	today := contracts.NewDate(2026, time.August, 28)

	err := d.Dispatch(context.Background(), a, lifecycle.Action{Kind: contracts.KindInitialAlert}, today)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFAAM-2026-0042")
	assert.Contains(t, err.Error(), "451 temporary failure")
}
