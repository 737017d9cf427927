// Package lock implements domain.AccountLocker for a single process and for
// a fleet of processes sharing Redis.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// DefaultTimeout bounds how long a caller waits for its account locks
const DefaultTimeout = 5 * time.Second

type slot struct {
	held chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex over account ids.
// Slots are created on demand and dropped when no caller references them.
type LocalLocker struct {
	mu      sync.Mutex
	slots   map[domain.AccountID]*slot
	timeout time.Duration
}

// NewLocalLocker creates a LocalLocker; a non-positive timeout selects DefaultTimeout
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LocalLocker{
		slots:   make(map[domain.AccountID]*slot),
		timeout: timeout,
	}
}

// Lock acquires every account in ascending order
func (l *LocalLocker) Lock(ctx context.Context, ids ...domain.AccountID) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ordered := domain.LockOrder(ids...)
	acquired := make([]domain.AccountID, 0, len(ordered))
	for _, id := range ordered {
		s := l.ref(id)
		select {
		case s.held <- struct{}{}:
			acquired = append(acquired, id)
		case <-waitCtx.Done():
			l.unref(id)
			l.release(acquired)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: account %s", domain.ErrLockTimeout, id)
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(acquired) })
	}, nil
}

func (l *LocalLocker) ref(id domain.AccountID) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	if !ok {
		s = &slot{held: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(id domain.AccountID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[id]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}

// release unlocks in reverse acquisition order
func (l *LocalLocker) release(acquired []domain.AccountID) {
	for i := len(acquired) - 1; i >= 0; i-- {
		id := acquired[i]
		l.mu.Lock()
		s := l.slots[id]
		l.mu.Unlock()
		<-s.held
		l.unref(id)
	}
}
