package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// showLocks is a process-local keyed mutex: at most one operation per show
// id holds it at a time.  Operations on different shows never wait for each
// other.  Entries are dropped once nobody holds or waits for them.
type showLocks struct {
	mu    sync.Mutex
	locks map[string]*showLock
}

type showLock struct {
	sem  chan struct{}
	refs int
}

func newShowLocks() *showLocks {
	return &showLocks{locks: make(map[string]*showLock)}
}

// acquire blocks until the show's lock is free or ctx is done.  The
// returned release must be called exactly once.
func (l *showLocks) acquire(ctx context.Context, showID string) (func(), error) {
	l.mu.Lock()
	sl, ok := l.locks[showID]
	if !ok {
		sl = &showLock{sem: make(chan struct{}, 1)}
		l.locks[showID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	select {
	case sl.sem <- struct{}{}:
		return func() {
			<-sl.sem
			l.drop(showID, sl)
		}, nil
	case <-ctx.Done():
		l.drop(showID, sl)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: waiting for show %s: %w", ErrTimeout, showID, ctx.Err())
		}
		return nil, ctx.Err()
	}
}

func (l *showLocks) drop(showID string, sl *showLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, showID)
	}
}

func (l *showLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
