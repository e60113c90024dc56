// Package memory provides in-memory calendar and notification collaborators.
// They stand in for the device calendar and push gateway in tests and dev
// runs; the snapshot accessors make reconciliation output inspectable.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/paywarden/obligation-engine/reconcile"
)

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar is an in-memory reconcile.CalendarStore.
type Calendar struct {
	mu      sync.RWMutex
	granted bool
	nextID  int
	entries map[string]reconcile.CalendarEntry
}

// NewCalendar returns a calendar with access granted.
func NewCalendar() *Calendar {
	return &Calendar{granted: true, entries: make(map[string]reconcile.CalendarEntry)}
}

// SetGranted flips the simulated permission state.
func (c *Calendar) SetGranted(granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.granted = granted
}

func (c *Calendar) RequestAccess(_ context.Context) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.granted, nil
}

func (c *Calendar) CreateEntry(_ context.Context, entry reconcile.CalendarEntry) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	entry.ID = "entry-" + strconv.Itoa(c.nextID)
	c.entries[entry.ID] = entry
	return entry.ID, nil
}

func (c *Calendar) ListEntries(_ context.Context, from, to time.Time) ([]reconcile.CalendarEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []reconcile.CalendarEntry
	for _, e := range c.entries {
		if e.End.Before(from) || e.Start.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Calendar) RemoveEntry(_ context.Context, entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, entryID)
	return nil
}

// Entries returns a snapshot of every stored entry, ordered by start time.
func (c *Calendar) Entries() []reconcile.CalendarEntry {
	out, _ := c.ListEntries(context.Background(), time.Time{}, time.Unix(1<<62, 0))
	return out
}

// =============================================================================
// NOTIFIER
// =============================================================================

// Notifier is an in-memory reconcile.NotificationService.
type Notifier struct {
	mu      sync.RWMutex
	granted bool
	pending map[string]reconcile.Notification
}

// NewNotifier returns a notifier with permission granted.
func NewNotifier() *Notifier {
	return &Notifier{granted: true, pending: make(map[string]reconcile.Notification)}
}

// SetGranted flips the simulated permission state.
func (n *Notifier) SetGranted(granted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.granted = granted
}

func (n *Notifier) RequestPermission(_ context.Context) (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.granted, nil
}

func (n *Notifier) Schedule(_ context.Context, notification reconcile.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[notification.Identifier] = notification
	return nil
}

func (n *Notifier) Cancel(_ context.Context, identifiers []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range identifiers {
		delete(n.pending, id)
	}
	return nil
}

func (n *Notifier) CancelAll(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = make(map[string]reconcile.Notification)
	return nil
}

// Pending returns a snapshot of scheduled reminders ordered by fire time.
func (n *Notifier) Pending() []reconcile.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]reconcile.Notification, 0, len(n.pending))
	for _, p := range n.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].FireAt.Before(out[j].FireAt)
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}
