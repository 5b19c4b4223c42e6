// Package crawler implements the site-audit crawl engine: a bounded,
// deduplicated, concurrency-limited traversal of a single website that
// yields structured page data for downstream scoring.
package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/urlnorm"
)

// Engine drives site traversals. It owns the stateless fetcher and link
// verifier; all traversal state lives in per-crawl sessions. One site
// crawl runs at a time per engine instance.
type Engine struct {
	cfg      *config.CrawlConfig
	fetcher  *fetcher
	verifier *linkVerifier

	mu       sync.Mutex // serializes site crawls
	retained *session   // last site session, kept for ContinueCrawl

	pageMu   sync.Mutex
	pageSess *session // shared session for single-page audits
}

// New creates an engine from the given configuration.
func New(cfg *config.CrawlConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		fetcher:  newFetcher(cfg),
		verifier: newLinkVerifier(cfg),
	}, nil
}

// CrawlPage fetches and analyzes a single URL. It never returns an
// error: every failure path yields an error-shaped PageContent.
func (e *Engine) CrawlPage(ctx context.Context, rawURL string) *PageContent {
	norm, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return newErrorPage(rawURL, StatusNetworkError, ClassInvalidURL, err.Error())
	}
	return e.fetchAndVerify(ctx, e.pageSession(), norm)
}

// pageSession lazily creates the session shared by CrawlPage callers,
// so concurrent single-page audits still fetch each URL at most once.
func (e *Engine) pageSession() *session {
	e.pageMu.Lock()
	defer e.pageMu.Unlock()
	if e.pageSess == nil {
		e.pageSess = newSession(1, e.cfg.ProbeTimeout)
	}
	return e.pageSess
}

// CrawlSite runs a full traversal starting at rawURL. budget <= 0 uses
// the configured default. The returned error is non-nil only when the
// context is cancelled; per-page failures never abort the crawl.
func (e *Engine) CrawlSite(ctx context.Context, rawURL string, budget int) (*CrawlResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.crawlSiteLocked(ctx, rawURL, budget)
}

// ContinueCrawl resumes the previous session if its frontier still has
// pending URLs; otherwise it behaves exactly like a fresh CrawlSite.
func (e *Engine) ContinueCrawl(ctx context.Context, rawURL string) (*CrawlResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.retained
	if sess == nil || sess.frontier == nil || sess.frontier.pendingCount() == 0 {
		return e.crawlSiteLocked(ctx, rawURL, 0)
	}
	slog.Info("resuming crawl", "pending", sess.frontier.pendingCount(), "visited", sess.frontier.visitedCount())
	return e.crawlLoop(ctx, sess)
}

func (e *Engine) crawlSiteLocked(ctx context.Context, rawURL string, budget int) (*CrawlResult, error) {
	if budget <= 0 {
		budget = e.cfg.PageBudget
	}

	sess := newSession(budget, e.cfg.ProbeTimeout)
	e.retained = sess
	sess.transition(stateSeeding)

	norm, err := urlnorm.Normalize(rawURL)
	if err != nil {
		// A seed that cannot even be normalized still yields a valid,
		// if degraded, result rather than an exception.
		sess.homepage = newErrorPage(rawURL, StatusNetworkError, ClassInvalidURL, err.Error())
		sess.stats.ErrorCount++
		sess.transition(stateFailed)
		return e.finish(ctx, sess, false), nil
	}

	seed, err := url.Parse(norm)
	if err != nil {
		sess.homepage = newErrorPage(rawURL, StatusNetworkError, ClassInvalidURL, err.Error())
		sess.stats.ErrorCount++
		sess.transition(stateFailed)
		return e.finish(ctx, sess, false), nil
	}
	sess.seedOrigin = seed
	sess.frontier = newFrontier(seed.Host)

	slog.Info("crawl started", "url", norm, "budget", budget, "concurrency", e.cfg.Concurrency)

	homepage := e.fetchAndVerify(ctx, sess, norm)
	sess.homepage = homepage
	sess.frontier.markVisited(norm)
	sess.recordPage(homepage)

	if homepage.Error != "" {
		slog.Warn("homepage fetch failed, returning degraded result", "url", norm, "error", homepage.Error)
		sess.transition(stateFailed)
		return e.finish(ctx, sess, false), nil
	}

	sess.frontier.enqueue(e.harvest(homepage, budget-1))
	return e.crawlLoop(ctx, sess)
}

// crawlLoop is the BatchFetching phase: dequeue up to Concurrency URLs,
// fetch them in parallel, then serially fold results back into the
// frontier. All frontier/visited/cache mutations happen on this loop
// between batches, never inside the fetch tasks.
func (e *Engine) crawlLoop(ctx context.Context, sess *session) (*CrawlResult, error) {
	sess.transition(stateBatchFetching)

	for sess.frontier.pendingCount() > 0 && sess.frontier.visitedCount() < sess.budget {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, sess, false), err
		}

		n := min(e.cfg.Concurrency, sess.budget-sess.frontier.visitedCount())
		batch := sess.frontier.dequeueBatch(n)
		if len(batch) == 0 {
			break
		}
		for _, u := range batch {
			sess.frontier.markVisited(u)
		}

		// Results land in an index-ordered slice so the page list order
		// is stable regardless of fetch completion order.
		results := make([]*PageContent, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, u := range batch {
			i, u := i, u
			g.Go(func() error {
				results[i] = e.fetchAndVerify(gctx, sess, u)
				return nil
			})
		}
		_ = g.Wait() // tasks never return errors; failures become error pages

		enqueued := 0
		for _, pc := range results {
			sess.pages = append(sess.pages, pc)
			sess.recordPage(pc)
			if pc.Error == "" {
				enqueued += sess.frontier.enqueue(e.harvest(pc, e.cfg.MaxLinksPerPage))
			}
		}

		// Frontier starvation: nothing new to visit.
		if enqueued == 0 && sess.frontier.pendingCount() == 0 {
			break
		}
	}

	return e.finish(ctx, sess, true), nil
}

// fetchAndVerify performs the cache-guarded fetch for one URL followed
// by link verification on a sample of its internal links. Verification
// runs inside the cache's single-flight section, so a page is verified
// exactly once and published to concurrent waiters fully formed.
func (e *Engine) fetchAndVerify(ctx context.Context, sess *session, normURL string) *PageContent {
	return sess.cache.getOrFetch(normURL, func() *PageContent {
		pc := e.fetcher.doFetch(ctx, sess, normURL)
		if pc.Error == "" && len(pc.InternalLinks) > 0 {
			if u, err := url.Parse(pc.URL); err == nil {
				e.verifier.verifySample(ctx, sess, pc.InternalLinks, u.Host)
			}
		}
		return pc
	})
}

// harvest collects up to max normalized, not-yet-broken internal link
// targets from a page for frontier admission.
func (e *Engine) harvest(pc *PageContent, max int) []string {
	var urls []string
	for _, link := range pc.InternalLinks {
		if len(urls) >= max {
			break
		}
		if link.Broken {
			continue
		}
		norm, err := urlnorm.Normalize(link.URL)
		if err != nil {
			continue
		}
		urls = append(urls, norm)
	}
	return urls
}

// finish runs the Draining phase and assembles the CrawlResult.
func (e *Engine) finish(ctx context.Context, sess *session, checkSitemap bool) *CrawlResult {
	sess.transition(stateDraining)

	hasSitemap := false
	if checkSitemap && sess.seedOrigin != nil {
		hasSitemap = e.checkSitemap(ctx, sess.seedOrigin)
	}

	if sess.frontier != nil {
		sess.stats.PagesSkipped = sess.frontier.skipped
	}
	sess.stats.EndTime = time.Now().UTC()
	sess.stats.Duration = sess.stats.EndTime.Sub(sess.stats.StartTime)
	sess.transition(stateCompleted)

	reachedBudget := sess.frontier != nil && sess.frontier.visitedCount() >= sess.budget
	slog.Info("crawl finished",
		"pages", len(sess.pages)+1,
		"errors", sess.stats.ErrorCount,
		"budget_reached", reachedBudget,
		"duration", sess.stats.Duration)

	return &CrawlResult{
		Homepage:          sess.homepage,
		OtherPages:        sess.pages,
		ReachedPageBudget: reachedBudget,
		HasSitemap:        hasSitemap,
		Stats:             sess.stats,
	}
}

// checkSitemap is a best-effort HEAD probe for /sitemap.xml at the seed
// origin; anything but a 200 means "no sitemap".
func (e *Engine) checkSitemap(ctx context.Context, origin *url.URL) bool {
	probeCtx, cancel := context.WithTimeout(ctx, e.cfg.ProbeTimeout)
	defer cancel()

	sitemapURL := origin.Scheme + "://" + origin.Host + "/sitemap.xml"
	return e.verifier.probe(probeCtx, sitemapURL) == 200
}
