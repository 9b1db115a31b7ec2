// Package vocab manages the per-user correction vocabulary: the learned
// original→corrected pairs applied by the dictation pipeline. Two store
// implementations are provided, an in-memory store for tests and single
// sessions and a PostgreSQL store for persistence, plus JSON export/import
// and the frequency tracker that decides when a repeated manual correction
// should be proposed for learning.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when a vocabulary entry does not exist.
var ErrNotFound = errors.New("vocab: entry not found")

// Entry is one stored correction pair.
type Entry struct {
	Original  string    `json:"original"`
	Corrected string    `json:"corrected"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists the user vocabulary. Originals are keyed lowercase;
// implementations upsert on Add so re-learning a pair updates the corrected
// form.
type Store interface {
	// Add inserts or updates a correction pair.
	Add(ctx context.Context, original, corrected string) error
	// Get returns the corrected form for original, or [ErrNotFound].
	Get(ctx context.Context, original string) (string, error)
	// Remove deletes the pair, or returns [ErrNotFound].
	Remove(ctx context.Context, original string) error
	// All returns every pair as an original→corrected map.
	All(ctx context.Context) (map[string]string, error)
	// Entries returns every pair ordered by original, for listing and
	// export.
	Entries(ctx context.Context) ([]Entry, error)
}

// MemStore is an in-memory [Store] safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]Entry)}
}

func normalizeKey(original string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(original))
	if k == "" {
		return "", fmt.Errorf("vocab: original must not be empty")
	}
	return k, nil
}

// Add implements [Store].
func (m *MemStore) Add(_ context.Context, original, corrected string) error {
	key, err := normalizeKey(original)
	if err != nil {
		return err
	}
	corrected = strings.TrimSpace(corrected)
	if corrected == "" {
		return fmt.Errorf("vocab: corrected form must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = Entry{Original: key, CreatedAt: time.Now().UTC()}
	}
	e.Corrected = corrected
	m.entries[key] = e
	return nil
}

// Get implements [Store].
func (m *MemStore) Get(_ context.Context, original string) (string, error) {
	key, err := normalizeKey(original)
	if err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return "", fmt.Errorf("vocab: get %q: %w", key, ErrNotFound)
	}
	return e.Corrected, nil
}

// Remove implements [Store].
func (m *MemStore) Remove(_ context.Context, original string) error {
	key, err := normalizeKey(original)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return fmt.Errorf("vocab: remove %q: %w", key, ErrNotFound)
	}
	delete(m.entries, key)
	return nil
}

// All implements [Store].
func (m *MemStore) All(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.entries))
	for k, e := range m.entries {
		out[k] = e.Corrected
	}
	return out, nil
}

// Entries implements [Store].
func (m *MemStore) Entries(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Original < out[j].Original })
	return out, nil
}
