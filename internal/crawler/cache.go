package crawler

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// responseCache memoizes fetch results by normalized URL for the
// lifetime of one crawl session. The check-fetch-store sequence is
// atomic from the caller's point of view: concurrent requests for the
// same URL coalesce onto a single physical fetch.
type responseCache struct {
	mu     sync.Mutex
	pages  map[string]*PageContent
	flight singleflight.Group

	brokenMu sync.Mutex
	broken   map[string]struct{}
}

func newResponseCache() *responseCache {
	return &responseCache{
		pages:  make(map[string]*PageContent),
		broken: make(map[string]struct{}),
	}
}

// getOrFetch returns the cached result for url, or runs fetch exactly
// once and stores its result before any waiter observes it.
func (c *responseCache) getOrFetch(url string, fetch func() *PageContent) *PageContent {
	c.mu.Lock()
	if pc, ok := c.pages[url]; ok {
		c.mu.Unlock()
		return pc
	}
	c.mu.Unlock()

	v, _, _ := c.flight.Do(url, func() (any, error) {
		pc := fetch()
		c.mu.Lock()
		c.pages[url] = pc
		c.mu.Unlock()
		return pc, nil
	})
	return v.(*PageContent)
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// markBroken records a URL confirmed dead so it is never re-probed.
func (c *responseCache) markBroken(url string) {
	c.brokenMu.Lock()
	defer c.brokenMu.Unlock()
	c.broken[url] = struct{}{}
}

func (c *responseCache) isBroken(url string) bool {
	c.brokenMu.Lock()
	defer c.brokenMu.Unlock()
	_, ok := c.broken[url]
	return ok
}
