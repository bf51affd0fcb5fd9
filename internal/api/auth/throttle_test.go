package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginThrottle(t *testing.T) {
	t.Run("BlocksAfterMaxAttempts", func(t *testing.T) {
		th := newLoginThrottle(3, time.Minute)

		assert.False(t, th.blocked("ada"))
		th.recordFailure("ada")
		th.recordFailure("ada")
		assert.False(t, th.blocked("ada"))
		th.recordFailure("ada")
		assert.True(t, th.blocked("ada"))

		// Other usernames keep their own budget.
		assert.False(t, th.blocked("grace"))
	})

	t.Run("ResetClearsCounter", func(t *testing.T) {
		th := newLoginThrottle(2, time.Minute)

		th.recordFailure("ada")
		th.recordFailure("ada")
		assert.True(t, th.blocked("ada"))

		th.reset("ada")
		assert.False(t, th.blocked("ada"))
	})

	t.Run("WindowExpires", func(t *testing.T) {
		th := newLoginThrottle(1, 20*time.Millisecond)

		th.recordFailure("ada")
		assert.True(t, th.blocked("ada"))

		time.Sleep(40 * time.Millisecond)
		assert.False(t, th.blocked("ada"))
	})

	t.Run("DisabledWhenMaxIsZero", func(t *testing.T) {
		th := newLoginThrottle(0, time.Minute)

		th.recordFailure("ada")
		th.recordFailure("ada")
		assert.False(t, th.blocked("ada"))
	})
}
