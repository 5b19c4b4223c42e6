package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter spaces requests to the same host by a fixed interval.
// The politeness delay between page fetches is enforced here as a token
// wait before each request rather than a sleep after it, which throttles
// identically without stalling an otherwise-idle worker.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func newHostLimiter(interval time.Duration) *hostLimiter {
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until a request to host may proceed.
func (l *hostLimiter) Wait(ctx context.Context, host string) error {
	return l.limiter(host).Wait(ctx)
}

func (l *hostLimiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[host]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Every(l.interval), 1)
	l.limiters[host] = limiter
	return limiter
}
