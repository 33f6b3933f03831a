package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Decision is the outcome of a single Check call.
type Decision struct {
	Allowed        bool
	Remaining      int
	ResetInSeconds int
}

// Limiter is a fixed-window request limiter keyed by client identifier.
// It is in-process only; every instance of the server keeps its own counts.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
	max     int
	now     func() time.Time
}

type entry struct {
	count     int
	resetTime time.Time
}

// New constructs a Limiter with the given window and per-window request cap.
// A nil now falls back to time.Now.
func New(window time.Duration, max int, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		entries: make(map[string]*entry),
		window:  window,
		max:     max,
		now:     now,
	}
}

// Check records a request for the identifier and reports whether it is
// allowed within the current window. Expiry is evaluated on read, so a
// stale entry never penalizes a returning client.
func (l *Limiter) Check(identifier string) Decision {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || now.After(e.resetTime) {
		l.entries[identifier] = &entry{
			count:     1,
			resetTime: now.Add(l.window),
		}
		return Decision{
			Allowed:        true,
			Remaining:      l.max - 1,
			ResetInSeconds: ceilSeconds(l.window),
		}
	}

	if e.count >= l.max {
		return Decision{
			Allowed:        false,
			Remaining:      0,
			ResetInSeconds: ceilSeconds(e.resetTime.Sub(now)),
		}
	}

	e.count++
	return Decision{
		Allowed:        true,
		Remaining:      l.max - e.count,
		ResetInSeconds: ceilSeconds(e.resetTime.Sub(now)),
	}
}

// Sweep drops entries whose window expired more than one window ago.
// Purely memory hygiene; correctness never depends on it running.
func (l *Limiter) Sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if now.After(e.resetTime.Add(l.window)) {
			delete(l.entries, key)
		}
	}
}

// Len reports the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func ceilSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}
