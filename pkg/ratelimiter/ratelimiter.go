package ratelimiter

// RateLimiter decides whether a request may proceed.
type RateLimiter interface {
	Allow() bool
}
