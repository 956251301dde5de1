package ratelimiter

import (
	"sync"
	"time"
)

// Limiter is what the HTTP layer depends on; Allow reports whether the
// request may proceed and, if not, how long the caller should wait.
type Limiter interface {
	Allow(source string) (bool, time.Duration)
}

type window struct {
	count   int
	resetAt time.Time
}

type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	frame   time.Duration
	ticker  *time.Ticker
	done    chan struct{}
}

func NewFixedWindowRateLimiter(limit int, frame time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		frame:   frame,
		ticker:  time.NewTicker(frame),
		done:    make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(source string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[source]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[source] = &window{count: 1, resetAt: now.Truncate(rl.frame).Add(rl.frame)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}

	w.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) startCleanup() {
	for {
		select {
		case <-rl.ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for source, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, source)
		}
	}
}

func (rl *FixedWindowRateLimiter) Close() {
	close(rl.done)
	rl.ticker.Stop()
}
