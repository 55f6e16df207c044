package backend

import (
	"sync"
	"time"
)

// Throttle enforces a minimum interval between refresh issues without
// blocking. The zero last-stamp means the first check is always ready, so
// startup refreshes immediately.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Ready reports whether the interval has elapsed since the last Stamp.
func (t *Throttle) Ready() bool {
	if t == nil || t.interval <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last.IsZero() || time.Since(t.last) >= t.interval
}

// Stamp records a refresh issue now.
func (t *Throttle) Stamp() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.last = time.Now()
	t.mu.Unlock()
}

// MarkReady clears the stamp so the next Ready check passes, used when a
// repository event should bypass the pacing.
func (t *Throttle) MarkReady() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.last = time.Time{}
	t.mu.Unlock()
}
