package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter gives every user a token bucket of limit requests per window.
type RateLimiter struct {
	users map[int64]*userLimit
	mu    sync.Mutex

	rate  rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

type userLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		users: make(map[int64]*userLimit),
		rate:  rate.Every(window / time.Duration(limit)),
		burst: limit,
		ttl:   window,
		now:   time.Now,
		done:  make(chan struct{}),
	}

	// Start cleanup goroutine
	go rl.cleanup(5 * time.Minute)

	return rl
}

func (rl *RateLimiter) get(userID int64, now time.Time) *rate.Limiter {
	u, ok := rl.users[userID]
	if !ok {
		u = &userLimit{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.users[userID] = u
	}
	u.lastSeen = now
	return u.limiter
}

// CheckUserLimit consumes one token and reports whether the user was allowed.
func (rl *RateLimiter) CheckUserLimit(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	return rl.get(userID, now).AllowN(now, 1)
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID int64) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u, ok := rl.users[userID]
	if !ok {
		return rl.burst
	}
	remaining := int(u.limiter.TokensAt(rl.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup drops users idle for longer than a full window; their bucket
// would be full again anyway.
func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, u := range rl.users {
		if now.Sub(u.lastSeen) > rl.ttl {
			delete(rl.users, userID)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.users = make(map[int64]*userLimit)
}
