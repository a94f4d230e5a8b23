// Package lock provides the per-bot tick lease that keeps ticks of the same
// bot sequential, within one process and across runner replicas.
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker hands out exclusive, non-blocking leases keyed by bot id.
type Locker interface {
	// TryLock acquires the lease for key. ok is false when another holder
	// has it. release is nil unless ok is true.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// LocalLocker serializes holders inside one process. The ttl is ignored;
// leases are held until released.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

var _ Locker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		mu:   sync.Mutex{},
		held: make(map[string]struct{}),
	}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}

	l.held[key] = struct{}{}

	var once sync.Once

	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

// Chain acquires every locker in order and releases them in reverse. It
// fails as soon as one locker refuses.
type Chain []Locker

var _ Locker = Chain(nil)

func (c Chain) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	releases := make([]func(), 0, len(c))

	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		release, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil || !ok {
			releaseAll()

			return nil, false, err
		}

		releases = append(releases, release)
	}

	return releaseAll, true, nil
}
