package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/parser"
	"github.com/sitelens/sitelens/internal/urlnorm"
)

// linkVerifier probes a bounded sample of a page's internal links with
// lightweight HEAD requests and flips their Broken flag in place. It
// never returns an error: any probe failure just means "broken".
type linkVerifier struct {
	client     *http.Client
	sampleSize int
	probeDelay time.Duration
	userAgent  string
}

func newLinkVerifier(cfg *config.CrawlConfig) *linkVerifier {
	return &linkVerifier{
		client: &http.Client{
			Timeout: cfg.ProbeTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		sampleSize: cfg.LinkSampleSize,
		probeDelay: cfg.ProbeDelay,
		userAgent:  cfg.UserAgent,
	}
}

// verifySample probes up to sampleSize of the given links. Links already
// known broken, cached as broken in the session, or pointing off-host
// are skipped without a probe.
func (v *linkVerifier) verifySample(ctx context.Context, sess *session, links []*parser.Link, baseHost string) {
	probed := 0
	for _, link := range links {
		if probed >= v.sampleSize {
			break
		}
		if link.Broken {
			continue
		}

		normalized, err := urlnorm.Normalize(link.URL)
		if err != nil {
			link.Broken = true
			continue
		}
		if sess.cache.isBroken(normalized) {
			link.Broken = true
			continue
		}

		target, err := url.Parse(normalized)
		if err != nil || target.Host != baseHost {
			continue
		}

		probed++
		status := v.probe(ctx, normalized)
		if status >= 400 || status == 0 {
			link.Broken = true
			sess.cache.markBroken(normalized)
			slog.Debug("broken link detected", "url", normalized, "status", status)
		}

		if v.probeDelay > 0 && probed < v.sampleSize {
			select {
			case <-ctx.Done():
				return
			case <-time.After(v.probeDelay):
			}
		}
	}
}

// probe issues one HEAD request and maps every failure to status 0.
func (v *linkVerifier) probe(ctx context.Context, target string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return 0
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode
}
