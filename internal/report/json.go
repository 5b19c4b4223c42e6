// Package report renders crawl results for consumption outside the
// engine. The JSON form is the contract handed to scoring pipelines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sitelens/sitelens/internal/crawler"
)

// WriteJSON renders a site crawl result as indented JSON.
func WriteJSON(w io.Writer, result *crawler.CrawlResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode crawl result: %w", err)
	}
	return nil
}

// WritePageJSON renders a single-page audit as indented JSON.
func WritePageJSON(w io.Writer, page *crawler.PageContent) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(page); err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	return nil
}

// SaveJSON writes a crawl result to the given file path.
func SaveJSON(path string, result *crawler.CrawlResult) error {
	f, err := os.Create(path) // #nosec G304 - path comes from the CLI user
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return WriteJSON(f, result)
}
