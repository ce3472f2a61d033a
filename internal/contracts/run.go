package contracts

import (
	"encoding/json"
	"time"
)

// NotificationKind identifies the reminder message templates.
type NotificationKind string

const (
	KindInitialAlert      NotificationKind = "initial_alert"
	KindOverdueEscalation NotificationKind = "overdue_escalation"
	KindFinalEscalation   NotificationKind = "final_escalation"
	KindExpiryReminder    NotificationKind = "expiry_reminder"
)

// RecordError captures a per-record failure during a scan run. Per-record
// failures never abort the batch; they are aggregated here instead.
type RecordError struct {
	Reference string           `json:"cfaam_ref"`
	Kind      NotificationKind `json:"kind,omitempty"`
	Reason    string           `json:"reason"`
}

// DurationMS is a duration rendered as whole milliseconds in JSON, matching
// its "_ms" field names.
type DurationMS time.Duration

// MarshalJSON renders the duration as millisecond count.
func (d DurationMS) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// UnmarshalJSON reads a millisecond count.
func (d *DurationMS) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = DurationMS(time.Duration(ms) * time.Millisecond)
	return nil
}

// RunSummary is the result of one reminder scan run. The trigger endpoint
// and the scheduled job always report a summary, never a raw error, except
// for configuration-level failures.
type RunSummary struct {
	RunDate         Date          `json:"run_date"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        DurationMS    `json:"duration_ms"`
	RecordsScanned  int           `json:"records_scanned"`
	InitialAlerts   int           `json:"records_initial_alerted"`
	Escalations     int           `json:"records_escalated"`
	ExpiryReminders int           `json:"expiry_reminders_sent"`
	EmailsSent      int           `json:"emails_sent"`
	Errors          []RecordError `json:"errors"`
}

// ErrorCount returns the number of per-record errors in the run.
func (s *RunSummary) ErrorCount() int {
	return len(s.Errors)
}
