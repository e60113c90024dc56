/*
collaborators.go - External collaborator interfaces

PURPOSE:
  The reconciler materializes the computed schedule into two external
  systems: a calendar store and a notification service. Both are consumed
  through narrow interfaces defined here, on the consumer side; production
  bindings (a device calendar, a push gateway) live outside this repository.
  reconcile/memory provides in-memory implementations.

TAGGING:
  Every artifact the engine creates carries the owning obligation's ID - in
  calendar entry notes via the tag line, and in the notification identifier
  "{obligationID}-{occurrenceIndex}". The wipe step only touches artifacts
  carrying the tag, never user-created entries.
*/
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paywarden/obligation-engine/obligation"
)

// tagPrefix marks calendar entries owned by this engine.
const tagPrefix = "OBLIGATION-ID: "

// Tag returns the identifier line embedded in entry notes.
func Tag(id obligation.ID) string { return tagPrefix + string(id) }

// Tagged reports whether notes carry any engine-owned tag.
func Tagged(notes string) bool { return strings.Contains(notes, tagPrefix) }

// NotificationID derives the deterministic identifier for one occurrence.
// Re-scheduling with the same key replaces rather than duplicates.
func NotificationID(id obligation.ID, occurrence int) string {
	return fmt.Sprintf("%s-%d", id, occurrence)
}

// DeepLink is the URL embedded in artifacts; opening it resolves back to the
// obligation's detail view.
func DeepLink(id obligation.ID) string {
	return "paywarden://obligation/" + string(id)
}

// =============================================================================
// CALENDAR COLLABORATOR
// =============================================================================

// CalendarEntry is one materialized calendar item.
type CalendarEntry struct {
	ID     string // assigned by the store on creation
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
	Notes  string // carries the obligation tag
	URL    string
}

// CalendarStore is the consumed calendar interface.
type CalendarStore interface {
	// RequestAccess reports whether the engine may write entries. A false
	// result skips calendar materialization without failing reconciliation.
	RequestAccess(ctx context.Context) (bool, error)

	CreateEntry(ctx context.Context, entry CalendarEntry) (string, error)

	// ListEntries returns entries overlapping [from, to].
	ListEntries(ctx context.Context, from, to time.Time) ([]CalendarEntry, error)

	RemoveEntry(ctx context.Context, entryID string) error
}

// =============================================================================
// NOTIFICATION COLLABORATOR
// =============================================================================

// Notification is one scheduled reminder.
type Notification struct {
	Identifier string // "{obligationID}-{occurrenceIndex}"
	Title      string
	Body       string
	FireAt     time.Time
}

// NotificationService is the consumed push-reminder interface.
type NotificationService interface {
	RequestPermission(ctx context.Context) (bool, error)

	// Schedule registers a reminder. An existing reminder with the same
	// identifier is replaced.
	Schedule(ctx context.Context, n Notification) error

	Cancel(ctx context.Context, identifiers []string) error

	// CancelAll removes every pending reminder created by this engine.
	CancelAll(ctx context.Context) error
}
