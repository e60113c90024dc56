// Package store provides an in-memory obligation.Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/paywarden/obligation-engine/obligation"
)

// Memory is a map-backed obligation store. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[obligation.ID]obligation.Obligation
}

func NewMemory() *Memory {
	return &Memory{records: make(map[obligation.ID]obligation.Obligation)}
}

func (m *Memory) List(_ context.Context) ([]obligation.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]obligation.Obligation, 0, len(m.records))
	for _, ob := range m.records {
		out = append(out, ob)
	}
	// Deterministic order keeps reconciliation output stable across runs.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Get(_ context.Context, id obligation.ID) (*obligation.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ob, ok := m.records[id]
	if !ok {
		return nil, obligation.ErrNotFound
	}
	cp := ob
	return &cp, nil
}

func (m *Memory) Put(_ context.Context, ob obligation.Obligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[ob.ID] = ob
	return nil
}

func (m *Memory) Delete(_ context.Context, id obligation.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return obligation.ErrNotFound
	}
	delete(m.records, id)
	return nil
}
