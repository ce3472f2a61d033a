// Package deadline derives regulatory reporting deadlines from a submission
// date and a returns frequency. The calculator is pure: no I/O, no clock.
package deadline

import (
	"strings"
	"time"

	"github.com/tradefin/cfaam/internal/contracts"
)

// Days between a reporting period end and the submission due date, and the
// alert lead time ahead of the due date.
const (
	gracePeriodDays = 14
	alertLeadDays   = 7
)

// Deadlines holds the computed due-date pair for an agreement.
type Deadlines struct {
	NextDue         contracts.Date
	ComplianceAlert contracts.Date
}

// Compute derives the next due date and compliance alert date for a
// submission. The frequency token set is closed and case-insensitive;
// unrecognized or empty frequencies return ok=false and callers must leave
// any existing deadline fields untouched.
func Compute(submitted contracts.Date, frequency string) (Deadlines, bool) {
	if submitted.IsZero() {
		return Deadlines{}, false
	}

	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case "quarterly":
		due := quarterEnd(submitted).AddDays(gracePeriodDays)
		return Deadlines{
			NextDue:         due,
			ComplianceAlert: due.AddDays(-alertLeadDays),
		}, true
	default:
		return Deadlines{}, false
	}
}

// quarterEnd returns the last day of the calendar quarter containing d:
// the last day of month 3, 6, 9 or 12, chosen as the first quarter-end
// month >= the submission month.
func quarterEnd(d contracts.Date) contracts.Date {
	endMonth := time.Month(3 * ((int(d.Month)-1)/3 + 1))
	// First day of the following month, minus one day.
	firstOfNext := time.Date(d.Year, endMonth+1, 1, 0, 0, 0, 0, time.UTC)
	return contracts.DateOf(firstOfNext.AddDate(0, 0, -1))
}
