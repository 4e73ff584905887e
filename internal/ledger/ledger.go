// Package ledger keeps the bounded, most-recent-first list of thread ids the
// auto processor has already captured.
package ledger

import (
	"context"
	"fmt"
	"slices"
)

// DefaultCapacity is the number of ids retained before the oldest is evicted.
const DefaultCapacity = 150

// Store persists the ledger between invocations.
type Store interface {
	LoadLedger(ctx context.Context) ([]string, error)
	SaveLedger(ctx context.Context, ids []string) error
}

// New creates an empty ledger. A non-positive capacity means DefaultCapacity.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{capacity: capacity, index: make(map[string]struct{})}
}

// Load reads the persisted ids, most recent first, and truncates to capacity.
func Load(ctx context.Context, store Store, capacity int) (*Ledger, error) {
	ids, err := store.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.LoadLedger failed: %w", err)
	}

	l := New(capacity)
	for _, id := range ids {
		if len(l.ids) == l.capacity {
			break
		}
		if _, ok := l.index[id]; ok {
			continue
		}
		l.ids = append(l.ids, id)
		l.index[id] = struct{}{}
	}
	return l, nil
}

// Ledger is not safe for concurrent use; the run lock serializes access.
type Ledger struct {
	capacity int
	ids      []string
	index    map[string]struct{}
}

// Contains reports exact membership.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

// MarkProcessed inserts id at the front unless already present and evicts the
// oldest entries beyond capacity. Existing ids keep their position.
func (l *Ledger) MarkProcessed(id string) {
	if l.Contains(id) {
		return
	}
	l.ids = slices.Insert(l.ids, 0, id)
	l.index[id] = struct{}{}

	for len(l.ids) > l.capacity {
		last := l.ids[len(l.ids)-1]
		l.ids = l.ids[:len(l.ids)-1]
		delete(l.index, last)
	}
}

// IDs returns a copy of the ids, most recent first.
func (l *Ledger) IDs() []string {
	return slices.Clone(l.ids)
}

// Len returns the number of retained ids.
func (l *Ledger) Len() int {
	return len(l.ids)
}

// Save writes the ledger to store.
func (l *Ledger) Save(ctx context.Context, store Store) error {
	if err := store.SaveLedger(ctx, l.IDs()); err != nil {
		return fmt.Errorf("store.SaveLedger failed: %w", err)
	}
	return nil
}
