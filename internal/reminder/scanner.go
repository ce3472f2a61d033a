// Package reminder orchestrates a reminder scan run: it reads candidate
// records from the store, asks the state machine which actions each record
// is eligible for, dispatches notifications, and persists state updates
// only after a successful send.
//
// Runs are batch-oriented and run to completion. The scanner is the sole
// writer of status, reminder_sent_flag and last_notification_date; it keeps
// no state between runs, so a run can safely be repeated for the same
// logical day.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/internal/lifecycle"
	"github.com/tradefin/cfaam/internal/notify"
	"github.com/tradefin/cfaam/pkg/logger"
)

// Store is the document-store contract the scanner needs: filtered candidate
// retrieval plus per-record partial updates. Each update is atomic for its
// record; there is no cross-record transaction.
type Store interface {
	// InitialAlertCandidates returns records with the one-time reminder flag
	// clear and an initial alert date on or before today.
	InitialAlertCandidates(ctx context.Context, today contracts.Date) ([]contracts.Agreement, error)

	// OverdueCandidates returns non-escalated records whose next due date is
	// strictly before today.
	OverdueCandidates(ctx context.Context, today contracts.Date) ([]contracts.Agreement, error)

	// ExpiryCandidates returns records whose expiry date is exactly one of
	// the lead-time milestones away from today.
	ExpiryCandidates(ctx context.Context, today contracts.Date, leadDays []int) ([]contracts.Agreement, error)

	// MarkInitialAlertSent sets the reminder flag and advances status.
	MarkInitialAlertSent(ctx context.Context, ref string, status contracts.Status) error

	// UpdateStatus advances the lifecycle status of a record.
	UpdateStatus(ctx context.Context, ref string, status contracts.Status) error

	// SetLastNotified records the same-day guard date for expiry reminders.
	SetLastNotified(ctx context.Context, ref string, day contracts.Date) error
}

// Dispatcher sends one notification for an eligible action.
type Dispatcher interface {
	Dispatch(ctx context.Context, a *contracts.Agreement, action lifecycle.Action, today contracts.Date) error
}

// Scanner runs the daily reminder sweep.
type Scanner struct {
	store      Store
	dispatcher Dispatcher
	log        *logger.Logger
}

// NewScanner wires a scanner with its collaborators.
func NewScanner(store Store, dispatcher Dispatcher, log *logger.Logger) *Scanner {
	return &Scanner{
		store:      store,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run performs one scan for the given logical date and returns the run
// summary. Per-record failures are aggregated into the summary and never
// abort the batch; only store-level candidate query failures fail the run.
func (s *Scanner) Run(ctx context.Context, today contracts.Date) (*contracts.RunSummary, error) {
	started := time.Now().UTC()
	summary := &contracts.RunSummary{
		RunDate:   today,
		StartedAt: started,
		Errors:    []contracts.RecordError{},
	}

	candidates, err := s.collect(ctx, today)
	if err != nil {
		return nil, err
	}
	summary.RecordsScanned = len(candidates)

	for i := range candidates {
		s.process(ctx, &candidates[i], today, summary)
	}

	summary.Duration = contracts.DurationMS(time.Since(started))

	s.log.WithFields(map[string]interface{}{
		"run_date":         today.String(),
		"records":          summary.RecordsScanned,
		"initial_alerts":   summary.InitialAlerts,
		"escalations":      summary.Escalations,
		"expiry_reminders": summary.ExpiryReminders,
		"emails_sent":      summary.EmailsSent,
		"errors":           summary.ErrorCount(),
	}).Info("Reminder scan completed")

	return summary, nil
}

// collect merges the three candidate scans by reference so each record is
// evaluated exactly once per run, in a stable order.
func (s *Scanner) collect(ctx context.Context, today contracts.Date) ([]contracts.Agreement, error) {
	initial, err := s.store.InitialAlertCandidates(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("query initial alert candidates: %w", err)
	}

	overdue, err := s.store.OverdueCandidates(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("query overdue candidates: %w", err)
	}

	expiring, err := s.store.ExpiryCandidates(ctx, today, lifecycle.ExpiryLeadDays)
	if err != nil {
		return nil, fmt.Errorf("query expiry candidates: %w", err)
	}

	merged := make(map[string]contracts.Agreement)
	for _, batch := range [][]contracts.Agreement{initial, overdue, expiring} {
		for _, a := range batch {
			if _, seen := merged[a.Reference]; !seen {
				merged[a.Reference] = a
			}
		}
	}

	refs := make([]string, 0, len(merged))
	for ref := range merged {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	out := make([]contracts.Agreement, 0, len(refs))
	for _, ref := range refs {
		out = append(out, merged[ref])
	}
	return out, nil
}

// process evaluates and applies all eligible actions for one record.
// Dispatch failures leave the record's state untouched so the next run can
// pick it up again; store write failures after a successful send are logged
// and counted, and the same-day/one-time guards absorb the replay.
func (s *Scanner) process(ctx context.Context, a *contracts.Agreement, today contracts.Date, summary *contracts.RunSummary) {
	actions := lifecycle.Evaluate(a, today)

	for _, action := range actions {
		if err := s.dispatcher.Dispatch(ctx, a, action, today); err != nil {
			s.recordError(summary, a.Reference, action.Kind, err)
			continue
		}
		summary.EmailsSent++

		if err := s.apply(ctx, a, action, today); err != nil {
			s.recordError(summary, a.Reference, action.Kind, err)
			continue
		}

		switch action.Kind {
		case contracts.KindInitialAlert:
			summary.InitialAlerts++
		case contracts.KindOverdueEscalation, contracts.KindFinalEscalation:
			summary.Escalations++
		case contracts.KindExpiryReminder:
			summary.ExpiryReminders++
		}
	}
}

// apply persists the state effects of a successfully dispatched action and
// mirrors them onto the in-memory record so later actions in the same run
// see the updated snapshot.
func (s *Scanner) apply(ctx context.Context, a *contracts.Agreement, action lifecycle.Action, today contracts.Date) error {
	if action.SetReminderSent {
		status := a.Status
		if lifecycle.CanTransition(a.Status, action.NewStatus) {
			status = action.NewStatus
		}
		if err := s.store.MarkInitialAlertSent(ctx, a.Reference, status); err != nil {
			return fmt.Errorf("mark initial alert sent: %w", err)
		}
		a.ReminderSent = true
		a.Status = status
		return nil
	}

	if action.NewStatus != "" {
		if !lifecycle.CanTransition(a.Status, action.NewStatus) {
			// Status already at or past the target; nothing to write.
			return nil
		}
		if err := s.store.UpdateStatus(ctx, a.Reference, action.NewStatus); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		a.Status = action.NewStatus
		return nil
	}

	if action.SetLastNotified {
		if err := s.store.SetLastNotified(ctx, a.Reference, today); err != nil {
			return fmt.Errorf("set last notification date: %w", err)
		}
		a.LastNotified = today
	}

	return nil
}

func (s *Scanner) recordError(summary *contracts.RunSummary, ref string, kind contracts.NotificationKind, err error) {
	level := s.log.WithFields(map[string]interface{}{
		"cfaam_ref": ref,
		"kind":      string(kind),
	}).WithError(err)

	if errors.Is(err, notify.ErrNoRecipient) {
		level.Warn("Record skipped: no recipient email")
	} else {
		level.Error("Record processing failed")
	}

	summary.Errors = append(summary.Errors, contracts.RecordError{
		Reference: ref,
		Kind:      kind,
		Reason:    err.Error(),
	})
}
