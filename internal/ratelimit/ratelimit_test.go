package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGuard(maxCalls int, window time.Duration) (*Guard, *time.Time) {
	guard := NewGuard(maxCalls, window)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return current }
	return guard, &current
}

func TestGuard_AdmitsUpToLimit(t *testing.T) {
	guard, _ := newTestGuard(40, time.Minute)

	for i := 0; i < 40; i++ {
		assert.True(t, guard.Admit(1), "admission %d should succeed", i+1)
	}
	assert.False(t, guard.Admit(1), "41st admission within the window should be rejected")
}

func TestGuard_WindowSlideRestoresCapacityByOne(t *testing.T) {
	guard, current := newTestGuard(3, time.Minute)

	// Spread three admissions over the window.
	assert.True(t, guard.Admit(7))
	*current = current.Add(10 * time.Second)
	assert.True(t, guard.Admit(7))
	*current = current.Add(10 * time.Second)
	assert.True(t, guard.Admit(7))
	assert.False(t, guard.Admit(7))

	// Slide past the oldest admission only: exactly one slot frees up.
	*current = current.Add(41 * time.Second)
	assert.True(t, guard.Admit(7))
	assert.False(t, guard.Admit(7))
}

func TestGuard_UsersAreIndependent(t *testing.T) {
	guard, _ := newTestGuard(2, time.Minute)

	assert.True(t, guard.Admit(1))
	assert.True(t, guard.Admit(1))
	assert.False(t, guard.Admit(1))

	assert.True(t, guard.Admit(2))
	assert.True(t, guard.Admit(2))
}

func TestGuard_RejectionIsNotRecorded(t *testing.T) {
	guard, current := newTestGuard(1, time.Minute)

	assert.True(t, guard.Admit(5))
	assert.False(t, guard.Admit(5))
	assert.False(t, guard.Admit(5))

	// Only the single admitted call occupies the window; once it expires,
	// capacity is back regardless of how many rejections happened.
	*current = current.Add(time.Minute + time.Second)
	assert.True(t, guard.Admit(5))
}
