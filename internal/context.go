package internal

import (
	"context"
	"time"
)

const defaultOperationTimeout = 5 * time.Second

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = defaultOperationTimeout
	}
	return context.WithTimeout(ctx, duration)
}

// Detach keeps the values of ctx (request id, logger) but drops its
// cancellation, for work that must outlive the request.
func Detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
