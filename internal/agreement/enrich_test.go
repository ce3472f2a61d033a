package agreement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradefin/cfaam/internal/contracts"
)

func TestFromExtractionComplete(t *testing.T) {
	fields := contracts.ExtractedFields{
		CFAAMRef:         " CFAAM-2025-0007 ",
		ImporterName:     "Acme Imports Ltd",
		DateSubmitted:    "01 January 2025",
		CurrencyAmount:   "USD 2,500,000.00",
		ExpiryDate:       "2025-12-31",
		ReturnsFrequency: "Quarterly",
		ConditionText:    "Quarterly returns must be submitted within 14 days of quarter end.",
	}

	now := time.Date(2025, time.January, 2, 9, 30, 0, 0, time.UTC)
	a, err := FromExtraction(fields, "ops@example.com", now)
	require.NoError(t, err)

	assert.Equal(t, "CFAAM-2025-0007", a.Reference)
	assert.Equal(t, "Acme Imports Ltd", a.ImporterName)
	assert.Equal(t, contracts.NewDate(2025, time.January, 1), a.SubmittedDate)
	assert.Equal(t, contracts.NewDate(2025, time.December, 31), a.ExpiryDate)

	// Quarter end 2025-03-31 plus the 14 day grace period.
	assert.Equal(t, contracts.NewDate(2025, time.April, 14), a.NextDueDate)
	assert.Equal(t, contracts.NewDate(2025, time.April, 7), a.ComplianceAlertDate)
	assert.Equal(t, a.ComplianceAlertDate, a.InitialAlertDate)

	assert.Equal(t, contracts.StatusActive, a.Status)
	assert.False(t, a.ReminderSent)
	assert.Equal(t, "ops@example.com", a.RecipientEmail)
	assert.Equal(t, now, a.ProcessedAt)
}

func TestFromExtractionMissingReference(t *testing.T) {
	fields := contracts.ExtractedFields{ImporterName: "Acme Imports Ltd"}

	_, err := FromExtraction(fields, "ops@example.com", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFAAM reference")
}

func TestFromExtractionUnrecognizedFrequency(t *testing.T) {
	fields := contracts.ExtractedFields{
		CFAAMRef:         "CFAAM-2025-0008",
		DateSubmitted:    "2025-02-10",
		ReturnsFrequency: "Fortnightly",
	}

	a, err := FromExtraction(fields, "", time.Now())
	require.NoError(t, err)

	assert.True(t, a.NextDueDate.IsZero())
	assert.True(t, a.ComplianceAlertDate.IsZero())
	assert.True(t, a.InitialAlertDate.IsZero())
	assert.Equal(t, contracts.StatusActive, a.Status)
}

func TestFromExtractionUnparsableDates(t *testing.T) {
	fields := contracts.ExtractedFields{
		CFAAMRef:         "CFAAM-2025-0009",
		DateSubmitted:    "not found",
		ExpiryDate:       "N/A",
		ReturnsFrequency: "Quarterly",
	}

	a, err := FromExtraction(fields, "ops@example.com", time.Now())
	require.NoError(t, err)

	assert.True(t, a.SubmittedDate.IsZero())
	assert.True(t, a.ExpiryDate.IsZero())
	assert.True(t, a.NextDueDate.IsZero(), "deadlines require a parsed submission date")
}
