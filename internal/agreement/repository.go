// Package agreement persists trade agreement compliance records in
// PostgreSQL, keyed by CFAAM reference, and provides the filtered candidate
// queries the reminder scanner needs.
package agreement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradefin/cfaam/internal/contracts"
)

// ErrNotFound is returned when no record exists for a CFAAM reference.
var ErrNotFound = errors.New("agreement not found")

// Repository handles trade agreement persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the trade_agreements table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS trade_agreements (
			cfaam_ref              TEXT PRIMARY KEY,
			importer_name          TEXT NOT NULL DEFAULT '',
			date_submitted         DATE,
			currency_and_amount    TEXT NOT NULL DEFAULT '',
			expiry_date            DATE,
			returns_frequency      TEXT NOT NULL DEFAULT '',
			condition_text         TEXT NOT NULL DEFAULT '',
			next_due_date          DATE,
			compliance_alert_date  DATE,
			initial_alert_date     DATE,
			status                 TEXT NOT NULL DEFAULT 'Active',
			reminder_sent_flag     BOOLEAN NOT NULL DEFAULT FALSE,
			last_notification_date DATE,
			recipient_email        TEXT NOT NULL DEFAULT '',
			processed_at_utc       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create trade_agreements table: %w", err)
	}
	return nil
}

// Upsert writes a full record keyed by its CFAAM reference. Re-ingesting the
// same document overwrites the extracted fields but is idempotent on identity.
func (r *Repository) Upsert(ctx context.Context, a *contracts.Agreement) error {
	if a.Reference == "" {
		return fmt.Errorf("upsert agreement: empty CFAAM reference")
	}

	query := `
		INSERT INTO trade_agreements (
			cfaam_ref,
			importer_name,
			date_submitted,
			currency_and_amount,
			expiry_date,
			returns_frequency,
			condition_text,
			next_due_date,
			compliance_alert_date,
			initial_alert_date,
			status,
			reminder_sent_flag,
			last_notification_date,
			recipient_email,
			processed_at_utc
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (cfaam_ref) DO UPDATE SET
			importer_name          = EXCLUDED.importer_name,
			date_submitted         = EXCLUDED.date_submitted,
			currency_and_amount    = EXCLUDED.currency_and_amount,
			expiry_date            = EXCLUDED.expiry_date,
			returns_frequency      = EXCLUDED.returns_frequency,
			condition_text         = EXCLUDED.condition_text,
			next_due_date          = EXCLUDED.next_due_date,
			compliance_alert_date  = EXCLUDED.compliance_alert_date,
			initial_alert_date     = EXCLUDED.initial_alert_date,
			recipient_email        = EXCLUDED.recipient_email,
			processed_at_utc       = EXCLUDED.processed_at_utc
	`

	_, err := r.db.Exec(ctx, query,
		a.Reference,
		a.ImporterName,
		dateArg(a.SubmittedDate),
		a.CurrencyAmount,
		dateArg(a.ExpiryDate),
		a.ReturnsFrequency,
		a.ConditionText,
		dateArg(a.NextDueDate),
		dateArg(a.ComplianceAlertDate),
		dateArg(a.InitialAlertDate),
		string(a.Status),
		a.ReminderSent,
		dateArg(a.LastNotified),
		a.RecipientEmail,
		a.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert agreement %s: %w", a.Reference, err)
	}

	return nil
}

const selectColumns = `
	cfaam_ref,
	importer_name,
	date_submitted,
	currency_and_amount,
	expiry_date,
	returns_frequency,
	condition_text,
	next_due_date,
	compliance_alert_date,
	initial_alert_date,
	status,
	reminder_sent_flag,
	last_notification_date,
	recipient_email,
	processed_at_utc
`

// Get retrieves one record by CFAAM reference.
func (r *Repository) Get(ctx context.Context, ref string) (*contracts.Agreement, error) {
	query := `SELECT ` + selectColumns + ` FROM trade_agreements WHERE cfaam_ref = $1`

	rows, err := r.db.Query(ctx, query, ref)
	if err != nil {
		return nil, fmt.Errorf("query agreement %s: %w", ref, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query agreement %s: %w", ref, err)
		}
		return nil, ErrNotFound
	}

	a, err := scanAgreement(rows)
	if err != nil {
		return nil, fmt.Errorf("scan agreement %s: %w", ref, err)
	}
	return a, nil
}

// List returns the full collection ordered by next due date, soonest first.
func (r *Repository) List(ctx context.Context) ([]contracts.Agreement, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM trade_agreements
		ORDER BY next_due_date ASC NULLS LAST, cfaam_ref ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	defer rows.Close()

	return collectAgreements(rows)
}

// InitialAlertCandidates returns records whose one-time initial alert is due:
// flag still clear and the anchored alert date on or before today.
func (r *Repository) InitialAlertCandidates(ctx context.Context, today contracts.Date) ([]contracts.Agreement, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM trade_agreements
		WHERE reminder_sent_flag = FALSE
		  AND initial_alert_date IS NOT NULL
		  AND initial_alert_date <= $1
		ORDER BY cfaam_ref ASC
	`

	rows, err := r.db.Query(ctx, query, today.Time())
	if err != nil {
		return nil, fmt.Errorf("query initial alert candidates: %w", err)
	}
	defer rows.Close()

	return collectAgreements(rows)
}

// OverdueCandidates returns non-escalated records strictly past their due date.
func (r *Repository) OverdueCandidates(ctx context.Context, today contracts.Date) ([]contracts.Agreement, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM trade_agreements
		WHERE next_due_date IS NOT NULL
		  AND next_due_date < $1
		  AND status <> $2
		ORDER BY cfaam_ref ASC
	`

	rows, err := r.db.Query(ctx, query, today.Time(), string(contracts.StatusEscalated))
	if err != nil {
		return nil, fmt.Errorf("query overdue candidates: %w", err)
	}
	defer rows.Close()

	return collectAgreements(rows)
}

// ExpiryCandidates returns records whose facility expiry is exactly one of
// the lead-time milestones away and which have not been notified today.
func (r *Repository) ExpiryCandidates(ctx context.Context, today contracts.Date, leadDays []int) ([]contracts.Agreement, error) {
	if len(leadDays) == 0 {
		return nil, nil
	}

	milestones := make([]time.Time, 0, len(leadDays))
	for _, lead := range leadDays {
		milestones = append(milestones, today.AddDays(lead).Time())
	}

	query := `
		SELECT ` + selectColumns + `
		FROM trade_agreements
		WHERE expiry_date = ANY($1)
		  AND (last_notification_date IS NULL OR last_notification_date <> $2)
		ORDER BY cfaam_ref ASC
	`

	rows, err := r.db.Query(ctx, query, milestones, today.Time())
	if err != nil {
		return nil, fmt.Errorf("query expiry candidates: %w", err)
	}
	defer rows.Close()

	return collectAgreements(rows)
}

// MarkInitialAlertSent sets the one-time reminder flag and the lifecycle
// status in a single per-record write.
func (r *Repository) MarkInitialAlertSent(ctx context.Context, ref string, status contracts.Status) error {
	query := `
		UPDATE trade_agreements
		SET reminder_sent_flag = TRUE, status = $2
		WHERE cfaam_ref = $1
	`

	tag, err := r.db.Exec(ctx, query, ref, string(status))
	if err != nil {
		return fmt.Errorf("mark initial alert sent for %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark initial alert sent for %s: %w", ref, ErrNotFound)
	}
	return nil
}

// UpdateStatus advances the lifecycle status of one record.
func (r *Repository) UpdateStatus(ctx context.Context, ref string, status contracts.Status) error {
	query := `UPDATE trade_agreements SET status = $2 WHERE cfaam_ref = $1`

	tag, err := r.db.Exec(ctx, query, ref, string(status))
	if err != nil {
		return fmt.Errorf("update status for %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update status for %s: %w", ref, ErrNotFound)
	}
	return nil
}

// SetLastNotified records the same-day notification guard date.
func (r *Repository) SetLastNotified(ctx context.Context, ref string, day contracts.Date) error {
	query := `UPDATE trade_agreements SET last_notification_date = $2 WHERE cfaam_ref = $1`

	tag, err := r.db.Exec(ctx, query, ref, day.Time())
	if err != nil {
		return fmt.Errorf("set last notification date for %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set last notification date for %s: %w", ref, ErrNotFound)
	}
	return nil
}

// dateArg converts a Date to a nullable DATE column argument.
func dateArg(d contracts.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

// scanAgreement reads one row into an Agreement, converting nullable DATE
// columns into zero Dates.
func scanAgreement(rows pgx.Rows) (*contracts.Agreement, error) {
	var (
		a                                                  contracts.Agreement
		submitted, expiry, nextDue, alert, initial, lastNt *time.Time
		status                                             string
	)

	err := rows.Scan(
		&a.Reference,
		&a.ImporterName,
		&submitted,
		&a.CurrencyAmount,
		&expiry,
		&a.ReturnsFrequency,
		&a.ConditionText,
		&nextDue,
		&alert,
		&initial,
		&status,
		&a.ReminderSent,
		&lastNt,
		&a.RecipientEmail,
		&a.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = contracts.Status(status)
	a.SubmittedDate = dateVal(submitted)
	a.ExpiryDate = dateVal(expiry)
	a.NextDueDate = dateVal(nextDue)
	a.ComplianceAlertDate = dateVal(alert)
	a.InitialAlertDate = dateVal(initial)
	a.LastNotified = dateVal(lastNt)

	return &a, nil
}

func dateVal(t *time.Time) contracts.Date {
	if t == nil {
		return contracts.Date{}
	}
	return contracts.DateOf(*t)
}

func collectAgreements(rows pgx.Rows) ([]contracts.Agreement, error) {
	var out []contracts.Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agreement row: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agreement rows: %w", err)
	}
	return out, nil
}
