package agreement

import (
	"fmt"
	"strings"
	"time"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/internal/deadline"
)

// FromExtraction builds a new compliance record from raw extracted fields.
// Dates are parsed once here; downstream logic never reparses strings.
// Deadline computation fails soft: an unrecognized returns frequency leaves
// the deadline fields absent but the record is still created. A missing
// CFAAM reference is a hard error because the record cannot be keyed.
func FromExtraction(fields contracts.ExtractedFields, recipientEmail string, now time.Time) (*contracts.Agreement, error) {
	ref := strings.TrimSpace(fields.CFAAMRef)
	if ref == "" {
		return nil, fmt.Errorf("extracted fields carry no CFAAM reference")
	}

	a := &contracts.Agreement{
		Reference:        ref,
		ImporterName:     strings.TrimSpace(fields.ImporterName),
		CurrencyAmount:   strings.TrimSpace(fields.CurrencyAmount),
		ReturnsFrequency: strings.TrimSpace(fields.ReturnsFrequency),
		ConditionText:    fields.ConditionText,
		Status:           contracts.StatusActive,
		ReminderSent:     false,
		RecipientEmail:   strings.TrimSpace(recipientEmail),
		ProcessedAt:      now.UTC(),
	}

	// Partial extractions are tolerated: an unparsable or missing date leaves
	// the field absent rather than failing the record.
	if d, err := contracts.ParseDate(fields.DateSubmitted); err == nil {
		a.SubmittedDate = d
	}
	if d, err := contracts.ParseDate(fields.ExpiryDate); err == nil {
		a.ExpiryDate = d
	}

	if deadlines, ok := deadline.Compute(a.SubmittedDate, a.ReturnsFrequency); ok {
		a.NextDueDate = deadlines.NextDue
		a.ComplianceAlertDate = deadlines.ComplianceAlert
		// The initial alert date equals the compliance alert date at creation
		// and is never recomputed; it anchors the one-time initial alert.
		a.InitialAlertDate = deadlines.ComplianceAlert
	}

	return a, nil
}
