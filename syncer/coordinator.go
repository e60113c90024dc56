/*
coordinator.go - Bidirectional sync between local store and remote replica

PURPOSE:
  Owns the obligation lifecycle across two stores:

    Active -> SoftDeleted -> Purged

  User deletion flips the tombstone locally (the UI updates instantly) and
  asks the remote to delete; only a confirmed remote delete purges the local
  record. Failed deletions stay tombstoned and are retried opportunistically
  on the next sync pass - deletions are rare and non-urgent, so there is no
  backoff schedule.

BOOTSTRAP:
  First pass with no local active records adopts the full remote set. With
  local records but a genuinely empty remote, local is pushed up - local is
  only treated as source of truth when the remote has nothing, so a fresh
  install can never clobber a populated replica.

CONFLICTS:
  Versioned write rejections are merged (see merge.go) and retried a bounded
  number of times. Exhaustion leaves the record local-only, not failed.

Every mutation that can change the schedulable set fires the onChange hook;
the caller wires it to the reconcile queue.
*/
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/paywarden/obligation-engine/obligation"
)

// maxSaveRetries bounds the merge-and-retry loop on version conflicts.
const maxSaveRetries = 3

// Coordinator reconciles the local obligation store with the remote replica.
type Coordinator struct {
	local  obligation.Store
	remote RemoteStore
	log    zerolog.Logger

	// onChange fires after any mutation that affects the obligation set.
	onChange func()

	now func() time.Time
}

// New wires a Coordinator. remote may be nil, in which case the coordinator
// degrades to local-only operation (mutations still work, nothing syncs).
func New(local obligation.Store, remote RemoteStore, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		local:    local,
		remote:   remote,
		log:      log,
		onChange: func() {},
		now:      time.Now,
	}
}

// OnChange registers the hook fired after obligation-set changes.
func (c *Coordinator) OnChange(fn func()) {
	if fn != nil {
		c.onChange = fn
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create validates and persists a new obligation, then replicates it.
func (c *Coordinator) Create(ctx context.Context, ob obligation.Obligation) error {
	ob.NormalizeKind()
	if err := ob.Validate(); err != nil {
		return err
	}
	if err := c.local.Put(ctx, ob); err != nil {
		return fmt.Errorf("failed to store obligation: %w", err)
	}
	c.replicate(ctx, ob)
	c.onChange()
	return nil
}

// Update validates and persists an edit, then replicates it.
func (c *Coordinator) Update(ctx context.Context, ob obligation.Obligation) error {
	if _, err := c.local.Get(ctx, ob.ID); err != nil {
		return err
	}
	ob.NormalizeKind()
	ob.UpdatedAt = c.now().UTC()
	if err := ob.Validate(); err != nil {
		return err
	}
	if err := c.local.Put(ctx, ob); err != nil {
		return fmt.Errorf("failed to store obligation: %w", err)
	}
	c.replicate(ctx, ob)
	c.onChange()
	return nil
}

// SoftDelete tombstones a record and immediately attempts the remote delete.
// The record is only purged locally once the remote confirms.
func (c *Coordinator) SoftDelete(ctx context.Context, id obligation.ID) error {
	ob, err := c.local.Get(ctx, id)
	if err != nil {
		return err
	}
	ob.SoftDeleted = true
	ob.UpdatedAt = c.now().UTC()
	if err := c.local.Put(ctx, *ob); err != nil {
		return fmt.Errorf("failed to tombstone obligation: %w", err)
	}

	c.pushDeletion(ctx, *ob)
	c.onChange()
	return nil
}

// =============================================================================
// SYNC PASS
// =============================================================================

// SyncPass runs one opportunistic pass: retry pending deletions, then apply
// the bootstrap policy. Triggered on startup and app-foreground equivalents.
func (c *Coordinator) SyncPass(ctx context.Context) error {
	if c.remote == nil {
		return nil
	}

	changed, err := c.syncPendingDeletions(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("pending deletion sync incomplete")
	}

	bootChanged, bootErr := c.bootstrap(ctx)
	if bootChanged {
		changed = true
	}

	if changed {
		c.onChange()
	}
	return bootErr
}

// syncPendingDeletions pushes every tombstone to the remote and purges the
// confirmed ones. Reports whether any record was purged.
func (c *Coordinator) syncPendingDeletions(ctx context.Context) (bool, error) {
	obs, err := c.local.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list obligations: %w", err)
	}

	changed := false
	var firstErr error
	for _, ob := range obs {
		if !ob.SoftDeleted {
			continue
		}
		if c.confirmDeletion(ctx, ob) {
			changed = true
		} else if firstErr == nil {
			firstErr = fmt.Errorf("remote delete pending for obligation %s", ob.ID)
		}
	}
	return changed, firstErr
}

// bootstrap applies the first-sync policy. Reports whether the local set
// changed.
func (c *Coordinator) bootstrap(ctx context.Context) (bool, error) {
	obs, err := c.local.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list obligations: %w", err)
	}

	var active []obligation.Obligation
	for _, ob := range obs {
		if !ob.SoftDeleted {
			active = append(active, ob)
		}
	}

	if len(active) == 0 {
		// Fresh install: adopt the remote set.
		fetched, err := c.remote.FetchAll(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to fetch remote records: %w", err)
		}
		changed := false
		for _, ob := range fetched {
			if err := c.local.Put(ctx, ob); err != nil {
				c.log.Warn().Err(err).Str("obligation", string(ob.ID)).
					Msg("failed to adopt remote record")
				continue
			}
			changed = true
		}
		if changed {
			c.log.Info().Int("records", len(fetched)).Msg("adopted remote obligation set")
		}
		return changed, nil
	}

	// Local has records: only push when the remote is genuinely empty.
	hasRemote, err := c.remote.HasAnyRecords(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to probe remote store: %w", err)
	}
	if hasRemote {
		return false, nil
	}
	for _, ob := range active {
		c.replicate(ctx, ob)
	}
	c.log.Info().Int("records", len(active)).Msg("pushed local obligation set to empty remote")
	return false, nil
}

// =============================================================================
// REMOTE HELPERS
// =============================================================================

// replicate saves one record remotely with conflict merging. Failures are
// logged, never surfaced: the record simply stays "not yet synced".
func (c *Coordinator) replicate(ctx context.Context, ob obligation.Obligation) {
	if c.remote == nil {
		return
	}
	if err := c.saveWithRetry(ctx, ob); err != nil {
		c.log.Warn().Err(err).Str("obligation", string(ob.ID)).Msg("remote save failed")
	}
}

func (c *Coordinator) saveWithRetry(ctx context.Context, ob obligation.Obligation) error {
	attempt := ob
	for i := 0; i < maxSaveRetries; i++ {
		err := c.remote.Save(ctx, attempt)
		if err == nil {
			return nil
		}
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		c.log.Debug().Str("obligation", string(ob.ID)).Int("attempt", i+1).
			Msg("merging remote version conflict")
		attempt = Merge(attempt, conflict.Stored)
	}
	return ErrRetriesExhausted
}

// pushDeletion attempts the remote delete and purges locally on confirmation.
func (c *Coordinator) pushDeletion(ctx context.Context, ob obligation.Obligation) {
	if c.remote == nil {
		return
	}
	c.confirmDeletion(ctx, ob)
}

// confirmDeletion returns true when the remote confirmed and the local
// record was purged.
func (c *Coordinator) confirmDeletion(ctx context.Context, ob obligation.Obligation) bool {
	if c.remote == nil {
		return false
	}
	if err := c.remote.Delete(ctx, ob.ID); err != nil {
		c.log.Warn().Err(err).Str("obligation", string(ob.ID)).
			Msg("remote delete failed, tombstone retained")
		return false
	}
	if err := c.local.Delete(ctx, ob.ID); err != nil && !errors.Is(err, obligation.ErrNotFound) {
		c.log.Warn().Err(err).Str("obligation", string(ob.ID)).Msg("local purge failed")
		return false
	}
	c.log.Info().Str("obligation", string(ob.ID)).Msg("obligation purged after remote confirmation")
	return true
}

// =============================================================================
// SETTINGS REPLICATION
// =============================================================================

// PushSettings replicates serialized user settings to the remote store.
func (c *Coordinator) PushSettings(ctx context.Context, settings map[string]string) error {
	if c.remote == nil {
		return nil
	}
	return c.remote.SaveSettings(ctx, settings)
}

// PullSettings fetches replicated settings; an empty map means none stored.
func (c *Coordinator) PullSettings(ctx context.Context) (map[string]string, error) {
	if c.remote == nil {
		return nil, nil
	}
	return c.remote.FetchSettings(ctx)
}
