package app

import (
	"context"
	"sync"
)

// DynamicLimiter caps the number of concurrent checkpoint checks. The cap
// can be retuned at runtime (settings hook); raising it wakes any waiters.
// Acquire respects the caller's context.
type DynamicLimiter struct {
	mu       sync.Mutex
	limit    int
	inFlight int
	wake     chan struct{}
}

func NewDynamicLimiter(limit int) *DynamicLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &DynamicLimiter{limit: limit, wake: make(chan struct{})}
}

func (l *DynamicLimiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

func (l *DynamicLimiter) SetLimit(limit int) {
	if limit <= 0 {
		limit = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit == limit {
		return
	}
	l.limit = limit
	l.wakeLocked()
}

func (l *DynamicLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.inFlight < l.limit {
			l.inFlight++
			l.mu.Unlock()
			return nil
		}
		ch := l.wake
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (l *DynamicLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight > 0 {
		l.inFlight--
	}
	l.wakeLocked()
}

// wakeLocked réveille tous les Acquire en attente. Appeler avec mu tenu.
func (l *DynamicLimiter) wakeLocked() {
	close(l.wake)
	l.wake = make(chan struct{})
}
