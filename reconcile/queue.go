/*
queue.go - Serialized reconciliation trigger queue

Because ReconcileAll wipes before it regenerates, two interleaved runs can
delete each other's fresh artifacts. The queue is the single execution point:
one worker goroutine processes requests in order, and rapid repeated triggers
(locale change immediately followed by foreground, for instance) collapse
into one pending run. Correctness needs ordering, not cancellation - a
superseding request simply produces the final state on its own run.
*/
package reconcile

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Trigger names why a reconciliation was requested. Informational only; no
// trigger outranks another.
type Trigger string

const (
	TriggerStartup      Trigger = "startup"
	TriggerDataChange   Trigger = "data_change"
	TriggerPolicyChange Trigger = "policy_change"
	TriggerSync         Trigger = "sync"
	TriggerNightly      Trigger = "nightly"
	TriggerManual       Trigger = "manual"
)

// Queue serializes reconciliation runs.
type Queue struct {
	reconciler *Reconciler
	log        zerolog.Logger

	// requests has capacity 1: a trigger arriving while one is already
	// pending is collapsed into it.
	requests chan Trigger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewQueue creates a stopped queue for the given reconciler.
func NewQueue(r *Reconciler, log zerolog.Logger) *Queue {
	return &Queue{
		reconciler: r,
		log:        log,
		requests:   make(chan Trigger, 1),
	}
}

// Start launches the worker. Calling Start twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.done = make(chan struct{})
	q.started = true

	go q.run(ctx)
	q.log.Info().Msg("reconcile queue started")
}

// Stop halts the worker after the in-flight run (if any) completes.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	cancel := q.cancel
	done := q.done
	q.mu.Unlock()

	cancel()
	<-done
	q.log.Info().Msg("reconcile queue stopped")
}

// Enqueue requests a reconciliation run. Never blocks: if a run is already
// pending, the new trigger collapses into it.
func (q *Queue) Enqueue(trigger Trigger) {
	select {
	case q.requests <- trigger:
	default:
		// A pending run will already observe the state this trigger is
		// reporting; dropping is the debounce.
	}
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-q.requests:
			res, err := q.reconciler.ReconcileAll(ctx)
			if err != nil {
				q.log.Error().Err(err).Str("trigger", string(trigger)).
					Msg("reconciliation failed")
				continue
			}
			q.log.Debug().Str("trigger", string(trigger)).
				Int("entries", res.Entries).
				Int("notifications", res.Notifications).
				Msg("reconciliation run processed")
		}
	}
}
