package isda

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// tokenLifetime is how long a stored credential is trusted. iSDA tokens live
// 60 minutes; the 5-minute margin avoids racing expiry mid-request.
const tokenLifetime = 55 * time.Minute

// tokenCache holds the single provider credential. The credential is replaced
// wholesale on each successful authentication and never partially mutated.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	clock     clockwork.Clock
}

func newTokenCache(clock clockwork.Clock) *tokenCache {
	return &tokenCache{clock: clock}
}

// set stores a freshly issued token with expiry = now + tokenLifetime.
func (tc *tokenCache) set(token string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.token = token
	tc.expiresAt = tc.clock.Now().Add(tokenLifetime)
}

// valid reports whether the stored credential exists and the current instant
// is strictly before its expiry.
func (tc *tokenCache) valid() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.validLocked()
}

// bearer returns the stored token if it is still valid.
func (tc *tokenCache) bearer() (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if !tc.validLocked() {
		return "", false
	}
	return tc.token, true
}

func (tc *tokenCache) validLocked() bool {
	return tc.token != "" && tc.clock.Now().Before(tc.expiresAt)
}
