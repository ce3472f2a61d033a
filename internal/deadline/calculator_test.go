package deadline

import (
	"testing"
	"time"

	"github.com/tradefin/cfaam/internal/contracts"
)

func TestComputeQuarterly(t *testing.T) {
	cases := []struct {
		name      string
		submitted contracts.Date
		wantDue   contracts.Date
		wantAlert contracts.Date
	}{
		{
			name:      "first day of Q1",
			submitted: contracts.NewDate(2025, time.January, 1),
			wantDue:   contracts.NewDate(2025, time.April, 14),
			wantAlert: contracts.NewDate(2025, time.April, 7),
		},
		{
			name:      "mid Q1",
			submitted: contracts.NewDate(2025, time.February, 15),
			wantDue:   contracts.NewDate(2025, time.April, 14),
			wantAlert: contracts.NewDate(2025, time.April, 7),
		},
		{
			name:      "last day of Q1",
			submitted: contracts.NewDate(2025, time.March, 31),
			wantDue:   contracts.NewDate(2025, time.April, 14),
			wantAlert: contracts.NewDate(2025, time.April, 7),
		},
		{
			name:      "Q2",
			submitted: contracts.NewDate(2025, time.May, 20),
			wantDue:   contracts.NewDate(2025, time.July, 14),
			wantAlert: contracts.NewDate(2025, time.July, 7),
		},
		{
			name:      "Q4 crosses year end",
			submitted: contracts.NewDate(2025, time.November, 3),
			wantDue:   contracts.NewDate(2026, time.January, 14),
			wantAlert: contracts.NewDate(2026, time.January, 7),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Compute(tc.submitted, "Quarterly")
			if !ok {
				t.Fatalf("Compute(%s) not ok", tc.submitted)
			}
			if !got.NextDue.Equal(tc.wantDue) {
				t.Errorf("NextDue = %s, want %s", got.NextDue, tc.wantDue)
			}
			if !got.ComplianceAlert.Equal(tc.wantAlert) {
				t.Errorf("ComplianceAlert = %s, want %s", got.ComplianceAlert, tc.wantAlert)
			}
		})
	}
}

func TestComputeCaseInsensitive(t *testing.T) {
	d := contracts.NewDate(2025, time.January, 1)
	for _, freq := range []string{"quarterly", "QUARTERLY", "  Quarterly  "} {
		if _, ok := Compute(d, freq); !ok {
			t.Errorf("Compute with frequency %q should be recognized", freq)
		}
	}
}

func TestComputeUnsupportedFrequency(t *testing.T) {
	d := contracts.NewDate(2025, time.January, 1)
	for _, freq := range []string{"", "monthly", "weekly", "ad hoc", "quarter"} {
		if got, ok := Compute(d, freq); ok {
			t.Errorf("Compute with frequency %q should not compute, got %+v", freq, got)
		}
	}
}

func TestComputeZeroSubmissionDate(t *testing.T) {
	if _, ok := Compute(contracts.Date{}, "quarterly"); ok {
		t.Error("Compute with zero submission date should not compute")
	}
}

// Sweep every day of a year: the due date always lands within 14 days after
// the end of the submission quarter, and the alert is always due minus 7.
func TestComputeQuarterlyProperties(t *testing.T) {
	day := contracts.NewDate(2025, time.January, 1)
	for day.Year == 2025 {
		got, ok := Compute(day, "quarterly")
		if !ok {
			t.Fatalf("Compute(%s) not ok", day)
		}

		qEnd := quarterEnd(day)
		gap := qEnd.DaysUntil(got.NextDue)
		if gap != 14 {
			t.Fatalf("due %s is %d days after quarter end %s, want 14 (submitted %s)",
				got.NextDue, gap, qEnd, day)
		}
		if !got.ComplianceAlert.Equal(got.NextDue.AddDays(-7)) {
			t.Fatalf("alert %s != due %s - 7d (submitted %s)", got.ComplianceAlert, got.NextDue, day)
		}
		if got.NextDue.Before(day) {
			t.Fatalf("due %s before submission %s", got.NextDue, day)
		}

		day = day.AddDays(1)
	}
}
