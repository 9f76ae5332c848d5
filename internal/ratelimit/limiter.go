// Package ratelimit provides fixed-window request limiting backed by
// process memory or Redis.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether another request under key fits within limit
// requests per window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
