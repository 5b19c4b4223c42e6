package crawler

import (
	"time"

	"github.com/sitelens/sitelens/internal/parser"
)

// PageContent is the result of fetching and parsing one URL. Errored
// fetches produce the same shape with Error set and every content field
// at a safe zero value, so downstream scoring never branches on nil.
type PageContent struct {
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`

	parser.Extraction

	IsHTTPS             bool      `json:"isHttps"`
	HasSecurityHeaders  bool      `json:"hasSecurityHeaders"`
	LoadTimeMs          int64     `json:"loadTimeMs"`
	ApproxResourceBytes int64     `json:"approxResourceBytes"`
	Error               string    `json:"error,omitempty"`
	FetchedAt           time.Time `json:"fetchedAt"`
}

// newErrorPage builds the error-shaped PageContent for a failed fetch.
// The classification title doubles as the page's only H1 so heading
// heuristics downstream see a non-empty value.
func newErrorPage(url string, status int, classification, message string) *PageContent {
	ext := parser.NewExtraction()
	ext.Headings.H1 = []string{classification}
	return &PageContent{
		URL:        url,
		StatusCode: status,
		Extraction: *ext,
		Error:      message,
		FetchedAt:  time.Now().UTC(),
	}
}

// CrawlResult is the engine's return value for one site traversal.
type CrawlResult struct {
	Homepage          *PageContent   `json:"homepage"`
	OtherPages        []*PageContent `json:"otherPages"`
	ReachedPageBudget bool           `json:"reachedPageBudget"`
	HasSitemap        bool           `json:"hasSitemap"`
	Stats             CrawlStats     `json:"stats"`
}

// CrawlStats are the per-session traversal counters.
type CrawlStats struct {
	PagesCrawled int           `json:"pagesCrawled"`
	PagesSkipped int           `json:"pagesSkipped"`
	ErrorCount   int           `json:"errorCount"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Duration     time.Duration `json:"duration"`
}
