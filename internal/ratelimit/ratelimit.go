// Package ratelimit implements the per-user admission control applied before
// every user-initiated action.
package ratelimit

import (
	"sync"
	"time"
)

// Guard keeps, per user, the timestamps of admitted requests inside a trailing
// window. A request is admitted while fewer than maxCalls admissions remain in
// the window; admission records the current timestamp.
type Guard struct {
	maxCalls int
	window   time.Duration

	mu    sync.Mutex
	calls map[int64][]time.Time
	now   func() time.Time
}

func NewGuard(maxCalls int, window time.Duration) *Guard {
	return &Guard{
		maxCalls: maxCalls,
		window:   window,
		calls:    make(map[int64][]time.Time),
		now:      time.Now,
	}
}

// Admit reports whether the user's request may proceed. Timestamps older than
// the window are pruned first, so capacity is restored one admission at a time
// as the window slides past each recorded call.
func (g *Guard) Admit(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cutoff := now.Add(-g.window)

	recent := g.calls[userID][:0]
	for _, call := range g.calls[userID] {
		if call.After(cutoff) {
			recent = append(recent, call)
		}
	}

	if len(recent) >= g.maxCalls {
		g.calls[userID] = recent
		return false
	}

	g.calls[userID] = append(recent, now)
	return true
}
