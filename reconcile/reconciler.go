/*
reconciler.go - Hard-reset schedule reconciliation

PURPOSE:
  Keeps externally materialized state (calendar entries, pending
  notifications) an exact projection of what the scheduler currently
  computes. Invoked on every data change, policy change, and app-foreground
  equivalent.

PROTOCOL:
  1. Recount installments and persist any corrected records
  2. Remove EVERY engine-tagged calendar entry and cancel all reminders
  3. For each active, non-tombstoned obligation, compute due dates
  4. Create one tagged entry and one keyed notification per date

  The full wipe is deliberate: due-date computation depends on mutable
  external state (holiday policy, current date), so an incremental diff can
  strand orphaned artifacts. Wiping and regenerating makes repeated runs
  idempotent - same keys, same content, no duplicates.

FAILURE MODEL:
  A failed write for one obligation never aborts the rest; failures are
  collected on the Result. Permission denial skips only the materialization
  side it affects - the computation itself is pure and always runs.

CONCURRENCY:
  ReconcileAll is destructive and must not interleave with itself. Callers
  go through Queue (queue.go), which serializes runs and collapses rapid
  repeated triggers.
*/
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/paywarden/obligation-engine/obligation"
	"github.com/paywarden/obligation-engine/schedule"
)

// Wipe bounds for the entry listing. The forward bound must reach the
// farthest date the scheduler can produce: an annual subscription's second
// occurrence lands up to two years past the reference date.
const (
	wipeLookback = 365 * 24 * time.Hour
	wipeHorizon  = 2 * 366 * 24 * time.Hour
)

// PolicyProvider returns the holiday policy currently in force. Config
// reloads swap the policy; the reconciler reads it fresh on every run.
type PolicyProvider func() *schedule.HolidayPolicy

// Reconciler drives the hard-reset protocol.
type Reconciler struct {
	store    obligation.Store
	calendar CalendarStore
	notifier NotificationService
	policy   PolicyProvider

	// now is swappable for tests.
	now func() schedule.Date

	log zerolog.Logger
}

// New wires a Reconciler. policy must not be nil; the other collaborators
// may be nil, which behaves like permanently denied access.
func New(store obligation.Store, calendar CalendarStore, notifier NotificationService, policy PolicyProvider, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		calendar: calendar,
		notifier: notifier,
		policy:   policy,
		now:      schedule.Today,
		log:      log,
	}
}

// WithNow overrides the reconciler's clock. Test hook.
func (r *Reconciler) WithNow(now func() schedule.Date) *Reconciler {
	r.now = now
	return r
}

// Result summarizes one reconciliation run.
type Result struct {
	Obligations   int // schedulable records considered
	Entries       int // calendar entries created
	Notifications int // reminders scheduled
	Removed       int // tagged entries wiped

	CalendarGranted     bool
	NotificationGranted bool

	// Errors holds per-obligation materialization failures. A non-empty
	// slice still means the run completed for everything else.
	Errors []error
}

// ReconcileAll executes one full wipe-and-regenerate pass.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*Result, error) {
	today := r.now()
	res := &Result{}

	obs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load obligations: %w", err)
	}

	// Remaining-installment counts are derived state; refresh before use.
	for i := range obs {
		if obs[i].RecountInstallments(today) {
			if err := r.store.Put(ctx, obs[i]); err != nil {
				r.log.Warn().Err(err).Str("obligation", string(obs[i].ID)).
					Msg("failed to persist installment recount")
			}
		}
	}

	res.CalendarGranted = r.requestCalendarAccess(ctx)
	res.NotificationGranted = r.requestNotificationPermission(ctx)

	if res.CalendarGranted {
		removed, err := r.wipeCalendar(ctx, today)
		if err != nil {
			res.Errors = append(res.Errors, err)
		}
		res.Removed = removed
	}
	if res.NotificationGranted {
		if err := r.notifier.CancelAll(ctx); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("failed to cancel reminders: %w", err))
		}
	}

	policy := r.policy()
	for _, ob := range obs {
		if !ob.Schedulable() {
			continue
		}
		res.Obligations++

		dueDates := obligation.ComputeDueDates(ob, today, policy)
		if len(dueDates) == 0 {
			continue
		}
		if err := r.materialize(ctx, ob, dueDates, res); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("obligation %s: %w", ob.ID, err))
		}
	}

	r.log.Info().
		Int("obligations", res.Obligations).
		Int("entries", res.Entries).
		Int("notifications", res.Notifications).
		Int("removed", res.Removed).
		Int("errors", len(res.Errors)).
		Msg("reconciliation complete")
	return res, nil
}

func (r *Reconciler) requestCalendarAccess(ctx context.Context) bool {
	if r.calendar == nil {
		return false
	}
	granted, err := r.calendar.RequestAccess(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("calendar access request failed")
		return false
	}
	return granted
}

func (r *Reconciler) requestNotificationPermission(ctx context.Context) bool {
	if r.notifier == nil {
		return false
	}
	granted, err := r.notifier.RequestPermission(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("notification permission request failed")
		return false
	}
	return granted
}

// wipeCalendar removes every engine-tagged entry in the wipe window.
func (r *Reconciler) wipeCalendar(ctx context.Context, today schedule.Date) (int, error) {
	from := today.Time().Add(-wipeLookback)
	to := today.Time().Add(wipeHorizon)

	entries, err := r.calendar.ListEntries(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list calendar entries: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !Tagged(entry.Notes) {
			continue
		}
		if err := r.calendar.RemoveEntry(ctx, entry.ID); err != nil {
			r.log.Warn().Err(err).Str("entry", entry.ID).Msg("failed to remove calendar entry")
			continue
		}
		removed++
	}
	return removed, nil
}

// materialize creates the calendar entry and reminder for each due date,
// keyed by (obligationID, occurrenceIndex).
func (r *Reconciler) materialize(ctx context.Context, ob obligation.Obligation, dueDates []schedule.Date, res *Result) error {
	var firstErr error

	for idx, due := range dueDates {
		if res.CalendarGranted {
			entry := r.buildEntry(ob, due)
			if _, err := r.calendar.CreateEntry(ctx, entry); err != nil {
				r.log.Warn().Err(err).Str("obligation", string(ob.ID)).
					Stringer("due", due).Msg("failed to create calendar entry")
				if firstErr == nil {
					firstErr = err
				}
			} else {
				res.Entries++
			}
		}

		if res.NotificationGranted {
			n := r.buildNotification(ob, due, idx)
			if err := r.notifier.Schedule(ctx, n); err != nil {
				r.log.Warn().Err(err).Str("id", n.Identifier).Msg("failed to schedule reminder")
				if firstErr == nil {
					firstErr = err
				}
			} else {
				res.Notifications++
			}
		}
	}
	return firstErr
}

// Calendar entries occupy a morning window on the due day; reminders fire at
// the start of it.
const (
	entryStartHour = 9
	entryEndHour   = 12
)

func (r *Reconciler) buildEntry(ob obligation.Obligation, due schedule.Date) CalendarEntry {
	return CalendarEntry{
		Title: fmt.Sprintf("💳 %s payment due", ob.Name),
		Start: due.At(entryStartHour, 0),
		End:   due.At(entryEndHour, 0),
		Notes: fmt.Sprintf("Payment due on %s\n%s", due, Tag(ob.ID)),
		URL:   DeepLink(ob.ID),
	}
}

func (r *Reconciler) buildNotification(ob obligation.Obligation, due schedule.Date, occurrence int) Notification {
	body := fmt.Sprintf("%s is due today.", ob.Name)
	if ob.AccountRef != "" {
		body = fmt.Sprintf("%s (**** %s) is due today.", ob.Name, ob.AccountRef)
	}
	if !ob.Amount.IsZero() {
		body = fmt.Sprintf("%s Amount: %s %s", body, ob.Amount.StringFixed(2), ob.Currency)
	}
	return Notification{
		Identifier: NotificationID(ob.ID, occurrence),
		Title:      "💳 Payment reminder",
		Body:       body,
		FireAt:     due.At(entryStartHour, 0),
	}
}
