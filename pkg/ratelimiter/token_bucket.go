package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket is a RateLimiter that admits bursts up to its capacity and
// refills at a fixed rate.
type TokenBucket struct {
	mu       sync.Mutex
	rate     float64 // tokens added per second
	capacity float64
	tokens   float64
	last     time.Time // last refill
}

// NewTokenBucket creates a full bucket refilling at rate tokens per second.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		last:     time.Now(),
	}
}

// Allow reports whether one request may proceed, consuming a token when it
// does.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = now
	}

	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

var _ RateLimiter = (*TokenBucket)(nil)
