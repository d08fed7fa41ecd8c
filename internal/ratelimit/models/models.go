// Package models holds the rate limit result shared by stores and middleware.
package models

import "time"

// RateLimitResult is the outcome of one check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in seconds and only set when the request was refused.
	RetryAfter int
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds, with a
// minimum of one.
func RetryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}
