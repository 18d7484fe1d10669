package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

// MemoryRuns keeps run summaries in process memory.  It is used when no
// database is configured.
type MemoryRuns struct {
	mu   sync.RWMutex
	runs map[string]model.RunSummary
}

// NewMemoryRuns returns an empty store.
func NewMemoryRuns() *MemoryRuns {
	return &MemoryRuns{runs: make(map[string]model.RunSummary)}
}

// Save inserts or replaces run.
func (m *MemoryRuns) Save(_ context.Context, run model.RunSummary) error {
	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()
	return nil
}

// GetByID returns ErrRunNotFound for unknown ids.
func (m *MemoryRuns) GetByID(_ context.Context, id string) (model.RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return model.RunSummary{}, ErrRunNotFound
	}
	return run, nil
}

// List returns the most recent runs first, at most limit of them.
func (m *MemoryRuns) List(_ context.Context, limit int) ([]model.RunSummary, error) {
	m.mu.RLock()
	out := make([]model.RunSummary, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
