package ratelimiter

import (
	"sync"
	"time"
)

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

// FixedWindowRateLimiter caps requests per client IP within a fixed window.
// Used on the devserver's authentication routes.
type FixedWindowRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	resets map[string]time.Time
	limit  int
	window time.Duration
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		counts: make(map[string]int),
		resets: make(map[string]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the client may proceed; when denied it also returns
// how long until the window resets.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if reset, ok := rl.resets[ip]; !ok || now.After(reset) {
		rl.counts[ip] = 0
		rl.resets[ip] = now.Add(rl.window)
	}

	if rl.counts[ip] >= rl.limit {
		return false, time.Until(rl.resets[ip])
	}
	rl.counts[ip]++
	return true, 0
}
