// Package labels stores the coarse scheduling phase of threads as markers.
package labels

import (
	"context"
	"slices"
	"sync"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// Store maps thread ids to sets of markers.
type Store interface {
	Markers(ctx context.Context, threadID string) ([]types.Marker, error)
	AddMarker(ctx context.Context, threadID string, m types.Marker) error
	RemoveMarker(ctx context.Context, threadID string, m types.Marker) error
	ThreadsWithMarker(ctx context.Context, m types.Marker, limit int) ([]string, error)
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{threads: make(map[string]map[types.Marker]struct{})}
}

// Memory is a Store kept in process memory. Threads are listed in the order
// they first received a marker.
type Memory struct {
	mu      sync.Mutex
	threads map[string]map[types.Marker]struct{}
	order   []string
}

func (s *Memory) Markers(_ context.Context, threadID string) ([]types.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Marker
	for _, m := range types.Markers {
		if _, ok := s.threads[threadID][m]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Memory) AddMarker(_ context.Context, threadID string, m types.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.threads[threadID]
	if !ok {
		set = make(map[types.Marker]struct{})
		s.threads[threadID] = set
		s.order = append(s.order, threadID)
	}
	set[m] = struct{}{}
	return nil
}

func (s *Memory) RemoveMarker(_ context.Context, threadID string, m types.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads[threadID], m)
	return nil
}

func (s *Memory) ThreadsWithMarker(_ context.Context, m types.Marker, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, id := range s.order {
		if limit > 0 && len(out) == limit {
			break
		}
		if _, ok := s.threads[id][m]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Has reports whether threadID carries m.
func (s *Memory) Has(threadID string, m types.Marker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.threads[threadID][m]
	return ok
}

// Snapshot returns every thread's markers.
func (s *Memory) Snapshot() map[string][]types.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]types.Marker, len(s.threads))
	for id, set := range s.threads {
		var ms []types.Marker
		for m := range set {
			ms = append(ms, m)
		}
		slices.Sort(ms)
		out[id] = ms
	}
	return out
}
