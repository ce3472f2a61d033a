package contracts

import "time"

// Status is the compliance lifecycle state of an agreement. Transitions are
// monotonic: a record never moves backward along the lifecycle, and
// Escalated_Compliance is terminal for the engine.
type Status string

const (
	StatusActive           Status = "Active"
	StatusInitialAlertSent Status = "Initial_Alert_Sent"
	StatusOverdue          Status = "Overdue"
	StatusEscalated        Status = "Escalated_Compliance"
)

// Rank orders statuses along the lifecycle. Unknown statuses rank below
// Active so a corrupted value can still be repaired by a forward transition.
func (s Status) Rank() int {
	switch s {
	case StatusActive:
		return 1
	case StatusInitialAlertSent:
		return 2
	case StatusOverdue:
		return 3
	case StatusEscalated:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is one of the defined lifecycle states.
func (s Status) Valid() bool {
	return s.Rank() > 0
}

// Agreement is one trade agreement's compliance record. The CFAAM reference
// is the sole identity key and is immutable after creation. All date fields
// are calendar dates; zero Dates mean "absent".
type Agreement struct {
	Reference        string `json:"cfaam_ref"`
	ImporterName     string `json:"importer_name"`
	SubmittedDate    Date   `json:"date_submitted"`
	CurrencyAmount   string `json:"currency_and_amount"`
	ExpiryDate       Date   `json:"expiry_date"`
	ReturnsFrequency string `json:"returns_frequency"`
	ConditionText    string `json:"condition_text"`

	// Computed at ingestion; absent when the returns frequency is not
	// recognized by the deadline calculator.
	NextDueDate         Date `json:"next_due_date"`
	ComplianceAlertDate Date `json:"compliance_alert_date"`
	// InitialAlertDate equals ComplianceAlertDate at creation and never
	// changes afterwards; it anchors the one-time initial alert.
	InitialAlertDate Date `json:"initial_alert_date"`

	Status         Status `json:"status"`
	ReminderSent   bool   `json:"reminder_sent_flag"`
	LastNotified   Date   `json:"last_notification_date"`
	RecipientEmail string `json:"recipient_email,omitempty"`

	ProcessedAt time.Time `json:"processed_at_utc"`
}
