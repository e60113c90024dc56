/*
remote.go - Remote replica interface

PURPOSE:
  The consumed surface of the hosted replica. Save must surface version
  conflicts as *ConflictError carrying both records
  so the coordinator can merge and retry. Delete returning nil IS the
  confirmation that allows the local tombstone to be purged.
*/
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/paywarden/obligation-engine/obligation"
)

var (
	// ErrConflict is the sentinel wrapped by ConflictError.
	ErrConflict = errors.New("remote version conflict")

	// ErrRetriesExhausted is returned when conflict merging keeps losing.
	// The record stays local-only ("not yet synced") until the next pass.
	ErrRetriesExhausted = errors.New("remote save retries exhausted")
)

// ConflictError reports a versioned write rejection. Attempted is the record
// the local side tried to write; Stored is what the remote currently holds.
type ConflictError struct {
	Attempted obligation.Obligation
	Stored    obligation.Obligation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("remote version conflict on obligation %s", e.Attempted.ID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// RemoteStore is the consumed remote replica interface.
type RemoteStore interface {
	FetchAll(ctx context.Context) ([]obligation.Obligation, error)

	// Save writes one record, returning *ConflictError on a versioned
	// rejection.
	Save(ctx context.Context, ob obligation.Obligation) error

	// Delete removes one record. A nil return is the deletion confirmation.
	Delete(ctx context.Context, id obligation.ID) error

	HasAnyRecords(ctx context.Context) (bool, error)

	// FetchSettings / SaveSettings replicate user settings (the serialized
	// holiday policy) alongside the records.
	FetchSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, settings map[string]string) error
}
