package crawler

import (
	"log/slog"
	"net/url"
	"time"
)

// crawlState tracks where the orchestrator is in one site traversal.
type crawlState int

const (
	stateIdle crawlState = iota
	stateSeeding
	stateBatchFetching
	stateDraining
	stateCompleted
	stateFailed
)

func (s crawlState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSeeding:
		return "seeding"
	case stateBatchFetching:
		return "batch-fetching"
	case stateDraining:
		return "draining"
	case stateCompleted:
		return "completed"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// session is the mutable state of one site traversal: the frontier and
// visited set, the per-session caches, accumulated pages, and counters.
// A session is never shared across concurrent crawls; the engine runs
// one site crawl at a time.
type session struct {
	seedOrigin *url.URL
	frontier   *frontier
	cache      *responseCache
	resolver   *resolverCache
	budget     int

	state    crawlState
	homepage *PageContent
	pages    []*PageContent
	stats    CrawlStats
}

func newSession(budget int, dnsTimeout time.Duration) *session {
	return &session{
		cache:    newResponseCache(),
		resolver: newResolverCache(dnsTimeout),
		budget:   budget,
		state:    stateIdle,
		pages:    []*PageContent{},
		stats:    CrawlStats{StartTime: time.Now().UTC()},
	}
}

func (s *session) transition(to crawlState) {
	slog.Debug("crawl state change", "from", s.state.String(), "to", to.String())
	s.state = to
}

func (s *session) recordPage(pc *PageContent) {
	s.stats.PagesCrawled++
	if pc.Error != "" {
		s.stats.ErrorCount++
	}
}
