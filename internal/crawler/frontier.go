package crawler

import (
	"net/url"
	"strings"
)

// blockedExtensions are path suffixes that cannot be HTML pages.
var blockedExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif",
	".css", ".js", ".zip", ".doc", ".docx",
}

// blockedSegments are administrative or transactional paths that an
// audit crawl must stay out of.
var blockedSegments = []string{
	"/admin", "/wp-admin", "/login", "/register", "/cart", "/checkout",
}

// frontier is the pending-URL queue plus the visited set for one crawl
// session. It is not safe for concurrent use: all mutations happen on
// the orchestrator's control loop between batches.
type frontier struct {
	seedHost string
	pending  []string
	queued   map[string]struct{}
	visited  map[string]struct{}
	skipped  int // URLs rejected by the admission policy
}

func newFrontier(seedHost string) *frontier {
	return &frontier{
		seedHost: seedHost,
		queued:   make(map[string]struct{}),
		visited:  make(map[string]struct{}),
	}
}

// shouldCrawl is the admission policy for discovered URLs: same host as
// the seed origin, no non-HTML extension, no blocked path segment.
func (f *frontier) shouldCrawl(normURL string) bool {
	u, err := url.Parse(normURL)
	if err != nil {
		return false
	}
	if u.Host != f.seedHost {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	for _, segment := range blockedSegments {
		if strings.Contains(path, segment) {
			return false
		}
	}
	return true
}

// enqueue filters urls through the admission policy and appends whatever
// is neither visited nor already pending. Returns the number admitted.
func (f *frontier) enqueue(urls []string) int {
	admitted := 0
	for _, u := range urls {
		if !f.shouldCrawl(u) {
			f.skipped++
			continue
		}
		if _, ok := f.visited[u]; ok {
			continue
		}
		if _, ok := f.queued[u]; ok {
			continue
		}
		f.queued[u] = struct{}{}
		f.pending = append(f.pending, u)
		admitted++
	}
	return admitted
}

// dequeueBatch removes and returns up to n URLs from the front of the
// queue, dropping (without re-inserting) anything visited meanwhile.
func (f *frontier) dequeueBatch(n int) []string {
	var batch []string
	for len(batch) < n && len(f.pending) > 0 {
		u := f.pending[0]
		f.pending = f.pending[1:]
		delete(f.queued, u)
		if _, ok := f.visited[u]; ok {
			continue
		}
		batch = append(batch, u)
	}
	return batch
}

func (f *frontier) markVisited(u string) {
	f.visited[u] = struct{}{}
}

func (f *frontier) visitedCount() int {
	return len(f.visited)
}

func (f *frontier) pendingCount() int {
	return len(f.pending)
}
