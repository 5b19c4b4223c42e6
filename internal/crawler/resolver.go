package crawler

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// lookupFunc matches net.Resolver.LookupHost; injectable for tests.
type lookupFunc func(ctx context.Context, host string) ([]string, error)

// resolverCache resolves a hostname at most once per crawl session.
// Both successes and failures are cached: an unresolvable host is a
// terminal condition for every URL on it within the session.
type resolverCache struct {
	lookup  lookupFunc
	timeout time.Duration

	mu     sync.Mutex
	hosts  map[string]error
	flight singleflight.Group
}

func newResolverCache(timeout time.Duration) *resolverCache {
	return &resolverCache{
		lookup:  net.DefaultResolver.LookupHost,
		timeout: timeout,
		hosts:   make(map[string]error),
	}
}

// Resolve reports whether the host is resolvable. The first call per
// host performs a real lookup; concurrent callers for the same host are
// coalesced onto that single lookup.
func (r *resolverCache) Resolve(ctx context.Context, host string) error {
	if host == "" {
		return fmt.Errorf("empty hostname")
	}

	r.mu.Lock()
	cached, ok := r.hosts[host]
	r.mu.Unlock()
	if ok {
		return cached
	}

	_, err, _ := r.flight.Do(host, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		_, lookupErr := r.lookup(lookupCtx, host)
		if lookupErr != nil {
			lookupErr = fmt.Errorf("cannot resolve %s: %w", host, lookupErr)
		}

		r.mu.Lock()
		r.hosts[host] = lookupErr
		r.mu.Unlock()
		return nil, lookupErr
	})
	return err
}
