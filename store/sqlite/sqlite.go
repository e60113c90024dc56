/*
Package sqlite provides the SQLite-backed obligation store.

PURPOSE:
  Implements obligation.Store on a local SQLite file. This is the device-side
  store the sync coordinator reconciles against the remote replica; it keeps
  tombstoned records until the remote confirms deletion.

KEY TABLE:
  obligations: one row per record. Kind-specific payloads (installment and
  subscription terms) are stored as JSON columns rather than nullable
  per-field columns - they travel with the record and are never queried on.

CONCURRENCY:
  A sync.RWMutex guards the connection. SQLite is opened with WAL so readers
  do not block behind the single writer.

MIGRATION:
  Schema is auto-migrated on New(). Fine for an embedded store; a server
  deployment would use versioned migrations instead.

SEE ALSO:
  - obligation/store.go: interface definition
  - obligation/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/paywarden/obligation-engine/obligation"
)

// Store implements obligation.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS obligations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		account_ref TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		anchor_day INTEGER NOT NULL,
		offset_days INTEGER NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		soft_deleted INTEGER NOT NULL DEFAULT 0,
		installment_json TEXT,
		subscription_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Sync passes scan for tombstones; scheduling scans for live records.
	CREATE INDEX IF NOT EXISTS idx_obligations_soft_deleted
		ON obligations(soft_deleted);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// OBLIGATION STORE (obligation.Store interface)
// =============================================================================

// List returns every record, tombstones included, oldest first.
func (s *Store) List(ctx context.Context) ([]obligation.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account_ref, color, kind, anchor_day, offset_days,
		       amount, currency, active, soft_deleted,
		       installment_json, subscription_json, created_at, updated_at
		FROM obligations
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligations: %w", err)
	}
	defer rows.Close()

	var out []obligation.Obligation
	for rows.Next() {
		ob, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ob)
	}
	return out, rows.Err()
}

// Get returns one record by ID.
func (s *Store) Get(ctx context.Context, id obligation.ID) (*obligation.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account_ref, color, kind, anchor_day, offset_days,
		       amount, currency, active, soft_deleted,
		       installment_json, subscription_json, created_at, updated_at
		FROM obligations
		WHERE id = ?
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query obligation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, obligation.ErrNotFound
	}
	ob, err := scanObligation(rows)
	if err != nil {
		return nil, err
	}
	return &ob, nil
}

// Put inserts or replaces a record.
func (s *Store) Put(ctx context.Context, ob obligation.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	installmentJSON, err := marshalInstallment(ob.Installment)
	if err != nil {
		return err
	}
	subscriptionJSON, err := marshalSubscription(ob.Subscription)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO obligations
		(id, name, account_ref, color, kind, anchor_day, offset_days,
		 amount, currency, active, soft_deleted,
		 installment_json, subscription_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			account_ref = excluded.account_ref,
			color = excluded.color,
			kind = excluded.kind,
			anchor_day = excluded.anchor_day,
			offset_days = excluded.offset_days,
			amount = excluded.amount,
			currency = excluded.currency,
			active = excluded.active,
			soft_deleted = excluded.soft_deleted,
			installment_json = excluded.installment_json,
			subscription_json = excluded.subscription_json,
			updated_at = excluded.updated_at
	`,
		string(ob.ID),
		ob.Name,
		ob.AccountRef,
		ob.Color,
		string(ob.Kind),
		ob.AnchorDay,
		ob.OffsetDays,
		ob.Amount.String(),
		ob.Currency,
		boolToInt(ob.Active),
		boolToInt(ob.SoftDeleted),
		installmentJSON,
		subscriptionJSON,
		ob.CreatedAt.UTC().Format(time.RFC3339),
		ob.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save obligation: %w", err)
	}
	return nil
}

// Delete hard-removes a record.
func (s *Store) Delete(ctx context.Context, id obligation.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM obligations WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete obligation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return obligation.ErrNotFound
	}
	return nil
}

// =============================================================================
// ROW MAPPING
// =============================================================================

func scanObligation(rows *sql.Rows) (obligation.Obligation, error) {
	var (
		ob               obligation.Obligation
		id, kind         string
		amount           string
		active, deleted  int
		installmentJSON  sql.NullString
		subscriptionJSON sql.NullString
		createdAt        string
		updatedAt        string
	)

	err := rows.Scan(
		&id, &ob.Name, &ob.AccountRef, &ob.Color, &kind,
		&ob.AnchorDay, &ob.OffsetDays,
		&amount, &ob.Currency, &active, &deleted,
		&installmentJSON, &subscriptionJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return ob, fmt.Errorf("failed to scan obligation: %w", err)
	}

	ob.ID = obligation.ID(id)
	ob.Kind = obligation.Kind(kind)
	ob.Active = active != 0
	ob.SoftDeleted = deleted != 0

	ob.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return ob, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	if installmentJSON.Valid && installmentJSON.String != "" {
		var terms obligation.InstallmentTerms
		if err := json.Unmarshal([]byte(installmentJSON.String), &terms); err != nil {
			return ob, fmt.Errorf("invalid installment payload: %w", err)
		}
		ob.Installment = &terms
	}
	if subscriptionJSON.Valid && subscriptionJSON.String != "" {
		var terms obligation.SubscriptionTerms
		if err := json.Unmarshal([]byte(subscriptionJSON.String), &terms); err != nil {
			return ob, fmt.Errorf("invalid subscription payload: %w", err)
		}
		ob.Subscription = &terms
	}

	if ob.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return ob, fmt.Errorf("invalid created_at: %w", err)
	}
	if ob.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return ob, fmt.Errorf("invalid updated_at: %w", err)
	}
	return ob, nil
}

func marshalInstallment(t *obligation.InstallmentTerms) (sql.NullString, error) {
	if t == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode installment terms: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func marshalSubscription(t *obligation.SubscriptionTerms) (sql.NullString, error) {
	if t == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode subscription terms: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
