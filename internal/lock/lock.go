// Package lock provides the mutual exclusion taken by every auto-processing
// invocation.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// Locker hands out a single exclusive hold. Acquire waits at most wait and
// returns types.ErrRunInProgress when the hold could not be taken in time.
type Locker interface {
	Acquire(ctx context.Context, wait time.Duration) (release func(), err error)
}

// NewSemaphore creates an in-process lock.
func NewSemaphore() *Semaphore {
	return &Semaphore{sem: semaphore.NewWeighted(1)}
}

// Semaphore serializes invocations within one process.
type Semaphore struct {
	sem *semaphore.Weighted
}

func (s *Semaphore) Acquire(ctx context.Context, wait time.Duration) (func(), error) {
	if wait <= 0 {
		if !s.sem.TryAcquire(1) {
			return nil, types.ErrRunInProgress
		}
		return s.release(), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.ErrRunInProgress
	}
	return s.release(), nil
}

func (s *Semaphore) release() func() {
	var once sync.Once
	return func() { once.Do(func() { s.sem.Release(1) }) }
}

type leaseStore interface {
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration, now time.Time) (bool, error)
	ReleaseLease(ctx context.Context, name, holder string) error
}

// LeaseOptions tunes a Lease.
type LeaseOptions struct {
	Name string
	// TTL bounds how long a crashed holder blocks others.
	TTL          time.Duration
	PollInterval time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
}

// NewLease creates a cross-process lock backed by a database lease.
func NewLease(store leaseStore, opts LeaseOptions) *Lease {
	if opts.Name == "" {
		opts.Name = "auto_process"
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Lease{store: store, opts: opts}
}

// Lease excludes invocations running in other processes.
type Lease struct {
	store leaseStore
	opts  LeaseOptions
}

func (l *Lease) Acquire(ctx context.Context, wait time.Duration) (func(), error) {
	holder := uuid.NewString()
	deadline := l.opts.Now().Add(wait)

	for {
		ok, err := l.store.AcquireLease(ctx, l.opts.Name, holder, l.opts.TTL, l.opts.Now())
		if err != nil {
			return nil, fmt.Errorf("store.AcquireLease failed: %w", err)
		}
		if ok {
			return func() {
				if err := l.store.ReleaseLease(context.WithoutCancel(ctx), l.opts.Name, holder); err != nil {
					l.opts.Logger.Warn("store.ReleaseLease failed, lease held until expiry",
						zap.String("lease", l.opts.Name),
						zap.Duration("ttl", l.opts.TTL),
						zap.Error(err),
					)
				}
			}, nil
		}
		if !l.opts.Now().Add(l.opts.PollInterval).Before(deadline) {
			return nil, types.ErrRunInProgress
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.opts.PollInterval):
		}
	}
}

// Chain acquires every locker in order and releases them in reverse. The
// wait budget is shared.
func Chain(lockers ...Locker) Locker {
	return chain(lockers)
}

type chain []Locker

func (c chain) Acquire(ctx context.Context, wait time.Duration) (func(), error) {
	deadline := time.Now().Add(wait)
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		rel, err := l.Acquire(ctx, max(time.Until(deadline), 0))
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, rel)
	}

	return releaseAll, nil
}

// IsBusy reports whether err means another invocation holds the lock.
func IsBusy(err error) bool {
	return errors.Is(err, types.ErrRunInProgress)
}
