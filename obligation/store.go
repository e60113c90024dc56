/*
store.go - Persistence interface for obligation records

PURPOSE:
  Defines the interface between the domain logic and local storage. Soft
  deletion is part of the contract: Delete() is a hard purge and is only
  called by the sync coordinator after the remote store confirms deletion.
  User-facing deletion goes through Put() with SoftDeleted set.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - obligation/store: in-memory store for tests and dev
*/
package obligation

import "context"

// Store handles persistence of obligation records.
type Store interface {
	// List returns every record, including tombstoned ones. The sync
	// coordinator needs tombstones; scheduling callers filter on
	// Schedulable().
	List(ctx context.Context) ([]Obligation, error)

	// Get returns one record by ID, ErrNotFound when absent.
	Get(ctx context.Context, id ID) (*Obligation, error)

	// Put inserts or replaces a record.
	Put(ctx context.Context, ob Obligation) error

	// Delete hard-removes a record. Reserved for the purge step after a
	// confirmed remote deletion.
	Delete(ctx context.Context, id ID) error
}
