// Package config provides configuration management for the audit crawler.
// It defines the crawl parameters and their default values.
package config

import "time"

// CrawlConfig holds every tunable of the crawl engine. All values have
// sane fixed defaults; see DefaultConfig.
type CrawlConfig struct {
	// Traversal bounds
	PageBudget      int `mapstructure:"page_budget" yaml:"page_budget"`             // Max pages per site crawl, homepage included
	Concurrency     int `mapstructure:"concurrency" yaml:"concurrency"`             // Max fetches in flight per batch
	MaxLinksPerPage int `mapstructure:"max_links_per_page" yaml:"max_links_per_page"` // Max new links harvested per page

	// Fetch behavior
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // Full page fetch timeout
	RequestDelay   time.Duration `mapstructure:"request_delay" yaml:"request_delay"`     // Per-host politeness interval
	MaxRedirects   int           `mapstructure:"max_redirects" yaml:"max_redirects"`     // Redirect cap per fetch
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`   // Response body size cap
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // Identifying User-Agent header

	// Accepting self-signed certificates is a deliberate policy: an audit
	// should still inspect sites with broken TLS rather than skip them.
	InsecureTLS bool `mapstructure:"insecure_tls" yaml:"insecure_tls"`

	// Link verification
	LinkSampleSize int           `mapstructure:"link_sample_size" yaml:"link_sample_size"` // Internal links probed per page
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`       // HEAD probe timeout
	ProbeDelay     time.Duration `mapstructure:"probe_delay" yaml:"probe_delay"`           // Pause between probes
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		PageBudget:      50,
		Concurrency:     5,
		MaxLinksPerPage: 5,
		RequestTimeout:  45 * time.Second,
		RequestDelay:    500 * time.Millisecond,
		MaxRedirects:    10,
		MaxBodyBytes:    10 * 1024 * 1024,
		UserAgent:       "Sitelens/1.0 (+https://github.com/sitelens/sitelens)",
		InsecureTLS:     true,
		LinkSampleSize:  5,
		ProbeTimeout:    5 * time.Second,
		ProbeDelay:      100 * time.Millisecond,
	}
}

// Validate checks if the configuration is valid.
func (c *CrawlConfig) Validate() error {
	if c.PageBudget <= 0 {
		return ErrInvalidPageBudget
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodyBytes <= 0 {
		return ErrInvalidBodyCap
	}
	if c.UserAgent == "" {
		return ErrEmptyUserAgent
	}
	if c.MaxLinksPerPage < 0 {
		c.MaxLinksPerPage = 0
	}
	if c.LinkSampleSize < 0 {
		c.LinkSampleSize = 0
	}
	return nil
}
