// Package ratelimit provides token-bucket limiters keyed by an arbitrary string
// such as a client IP or a phone number.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed holds one token bucket per key and forgets keys that have been idle for a while.
type Keyed struct {
	mu       sync.Mutex
	limiters map[string]*entry
	r        rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// New allows burst events per key immediately, refilled at r per second.
func New(r rate.Limit, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[string]*entry),
		r:        r,
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

// PerWindow allows n events per key in any window-long stretch after a full refill.
// It returns nil, meaning no limit, when n or window is not positive.
func PerWindow(n int, window time.Duration) *Keyed {
	if n <= 0 || window <= 0 {
		return nil
	}
	k := New(rate.Every(window/time.Duration(n)), n)
	if window > k.idle {
		k.idle = window
	}
	return k
}

// WithClock replaces the time source. Used by tests.
func (k *Keyed) WithClock(now func() time.Time) *Keyed {
	k.now = now
	return k
}

// Allow reports whether one more event for key fits in the budget and consumes it.
func (k *Keyed) Allow(key string) bool {
	now := k.now()
	k.mu.Lock()
	e, ok := k.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.r, k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = now
	k.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Sweep drops keys idle for longer than the refill horizon.
func (k *Keyed) Sweep() {
	now := k.now()
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, e := range k.limiters {
		if now.Sub(e.lastSeen) > k.idle {
			delete(k.limiters, key)
		}
	}
}

// Run sweeps every five minutes until ctx is cancelled.
func (k *Keyed) Run(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			k.Sweep()
		}
	}
}

func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
