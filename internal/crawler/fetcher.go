package crawler

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/parser"
)

// securityHeaders are the response headers counted toward the
// HasSecurityHeaders flag; two or more present is a pass.
var securityHeaders = []string{
	"Content-Security-Policy",
	"X-Content-Type-Options",
	"X-Frame-Options",
	"Strict-Transport-Security",
	"X-XSS-Protection",
}

// fetcher performs the HTTP GET for one normalized URL and classifies
// the outcome. It is stateless apart from its HTTP client; per-session
// caches are passed in by the orchestrator.
type fetcher struct {
	client  *http.Client
	cfg     *config.CrawlConfig
	limiter *hostLimiter
}

func newFetcher(cfg *config.CrawlConfig) *fetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		// Audit coverage beats strict transport security here: sites
		// with self-signed or expired certificates still get analyzed.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureTLS}, // #nosec G402
	}

	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &fetcher{
		client:  client,
		cfg:     cfg,
		limiter: newHostLimiter(cfg.RequestDelay),
	}
}

// doFetch performs one physical GET and classifies the outcome. Callers
// go through the session's response cache, which guarantees at most one
// invocation per URL per session.
func (f *fetcher) doFetch(ctx context.Context, sess *session, normURL string) *PageContent {
	target, err := url.Parse(normURL)
	if err != nil {
		return newErrorPage(normURL, StatusNetworkError, ClassInvalidURL, err.Error())
	}

	// DNS availability is confirmed before any HTTP work; failures are
	// terminal for every URL on the host within this session.
	if err := sess.resolver.Resolve(ctx, target.Hostname()); err != nil {
		slog.Debug("DNS resolution failed", "url", normURL, "error", err)
		return newErrorPage(normURL, StatusDNSError, ClassDNSError, err.Error())
	}

	if err := f.limiter.Wait(ctx, target.Host); err != nil {
		return newErrorPage(normURL, StatusNetworkError, ClassNetwork, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normURL, nil)
	if err != nil {
		return newErrorPage(normURL, StatusNetworkError, ClassNetwork, err.Error())
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	var firstByte time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() { firstByte = time.Now() },
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		slog.Debug("fetch failed", "url", normURL, "error", err)
		return newErrorPage(normURL, StatusNetworkError, ClassNetwork, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return newErrorPage(normURL, StatusNetworkError, ClassNetwork, err.Error())
	}
	loadTime := time.Since(start)
	if !firstByte.IsZero() {
		slog.Debug("fetch timing", "url", normURL, "ttfb", firstByte.Sub(start), "total", loadTime)
	}

	if resp.StatusCode >= 500 {
		page := newErrorPage(normURL, resp.StatusCode, classifyStatus(resp.StatusCode),
			fmt.Sprintf("server returned HTTP %d", resp.StatusCode))
		page.LoadTimeMs = loadTime.Milliseconds()
		return page
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		page := newErrorPage(normURL, resp.StatusCode, ClassNonHTML,
			fmt.Sprintf("unsupported content type %q", contentType))
		page.LoadTimeMs = loadTime.Milliseconds()
		return page
	}

	// Extraction resolves links against the final URL so pages behind
	// redirects keep correct internal/external classification.
	finalURL := resp.Request.URL
	extractor, err := parser.NewExtractor(finalURL.String())
	if err != nil {
		return newErrorPage(normURL, resp.StatusCode, ClassInvalidURL, err.Error())
	}
	extraction, err := extractor.Extract(body)
	if err != nil {
		return newErrorPage(normURL, resp.StatusCode, ClassNetwork, err.Error())
	}

	return &PageContent{
		URL:                 normURL,
		StatusCode:          resp.StatusCode,
		Extraction:          *extraction,
		IsHTTPS:             finalURL.Scheme == "https",
		HasSecurityHeaders:  countSecurityHeaders(resp.Header) >= 2,
		LoadTimeMs:          loadTime.Milliseconds(),
		ApproxResourceBytes: int64(len(body)),
		FetchedAt:           time.Now().UTC(),
	}
}

func isHTMLContent(contentType string) bool {
	return strings.HasPrefix(contentType, "text/html") ||
		strings.HasPrefix(contentType, "application/xhtml+xml")
}

func countSecurityHeaders(h http.Header) int {
	count := 0
	for _, name := range securityHeaders {
		if h.Get(name) != "" {
			count++
		}
	}
	return count
}
