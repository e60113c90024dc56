// Package remote provides an in-memory syncer.RemoteStore. It stands in for
// the hosted replica in tests and dev runs, with knobs to inject version
// conflicts and delete failures.
package remote

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/paywarden/obligation-engine/obligation"
	"github.com/paywarden/obligation-engine/syncer"
)

// ErrUnavailable simulates a transient remote failure.
var ErrUnavailable = errors.New("remote store unavailable")

// Memory is a map-backed remote replica.
type Memory struct {
	mu       sync.Mutex
	records  map[obligation.ID]obligation.Obligation
	settings map[string]string

	// Test knobs.
	conflictNext map[obligation.ID]int // remaining Save calls to reject
	failDeletes  map[obligation.ID]int // remaining Delete calls to fail
}

func NewMemory() *Memory {
	return &Memory{
		records:      make(map[obligation.ID]obligation.Obligation),
		settings:     make(map[string]string),
		conflictNext: make(map[obligation.ID]int),
		failDeletes:  make(map[obligation.ID]int),
	}
}

// Seed stores records directly, bypassing conflict simulation.
func (m *Memory) Seed(obs ...obligation.Obligation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ob := range obs {
		m.records[ob.ID] = ob
	}
}

// InjectConflicts makes the next n Save calls for id fail with a
// ConflictError carrying the currently stored record.
func (m *Memory) InjectConflicts(id obligation.ID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflictNext[id] = n
}

// FailDeletes makes the next n Delete calls for id fail.
func (m *Memory) FailDeletes(id obligation.ID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDeletes[id] = n
}

func (m *Memory) FetchAll(_ context.Context) ([]obligation.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]obligation.Obligation, 0, len(m.records))
	for _, ob := range m.records {
		out = append(out, ob)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Save(_ context.Context, ob obligation.Obligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := m.conflictNext[ob.ID]; n > 0 {
		m.conflictNext[ob.ID] = n - 1
		return &syncer.ConflictError{Attempted: ob, Stored: m.records[ob.ID]}
	}
	m.records[ob.ID] = ob
	return nil
}

func (m *Memory) Delete(_ context.Context, id obligation.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := m.failDeletes[id]; n > 0 {
		m.failDeletes[id] = n - 1
		return ErrUnavailable
	}
	delete(m.records, id)
	return nil
}

func (m *Memory) HasAnyRecords(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records) > 0, nil
}

func (m *Memory) FetchSettings(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) SaveSettings(_ context.Context, settings map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range settings {
		m.settings[k] = v
	}
	return nil
}

// Records returns a snapshot of the stored records, for assertions.
func (m *Memory) Records() []obligation.Obligation {
	out, _ := m.FetchAll(context.Background())
	return out
}
