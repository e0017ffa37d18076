package weather

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound provider requests: at most one request per
// configured interval, with no burst. Concurrent callers queue on Acquire
// in arrival order (subject to scheduler fairness) rather than failing.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter builds a pacer allowing one request every minInterval.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Acquire blocks until the caller may issue a request, or until ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
