package auth

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// loginThrottle counts failed login attempts per username inside a rolling
// TTL window. It is advisory hardening on top of the credential check; it
// never changes the outcome of a valid login that is allowed through.
type loginThrottle struct {
	attempts    *cache.Cache
	maxAttempts int
}

func newLoginThrottle(maxAttempts int, window time.Duration) *loginThrottle {
	return &loginThrottle{
		attempts:    cache.New(window, 2*window),
		maxAttempts: maxAttempts,
	}
}

// blocked reports whether the username has exhausted its attempt budget.
func (t *loginThrottle) blocked(username string) bool {
	if t.maxAttempts <= 0 {
		return false
	}
	n, found := t.attempts.Get(username)
	return found && n.(int) >= t.maxAttempts
}

// recordFailure bumps the failure count, starting a fresh window on the
// first failure.
func (t *loginThrottle) recordFailure(username string) {
	if n, found := t.attempts.Get(username); found {
		t.attempts.Set(username, n.(int)+1, cache.DefaultExpiration)
		return
	}
	t.attempts.Set(username, 1, cache.DefaultExpiration)
}

// reset clears the failure count after a successful login.
func (t *loginThrottle) reset(username string) {
	t.attempts.Delete(username)
}
