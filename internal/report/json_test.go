package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sitelens/sitelens/internal/crawler"
)

func sampleResult() *crawler.CrawlResult {
	return &crawler.CrawlResult{
		Homepage: &crawler.PageContent{
			URL:        "https://acme.example/",
			StatusCode: 200,
		},
		OtherPages:        []*crawler.PageContent{},
		ReachedPageBudget: false,
		HasSitemap:        true,
		Stats:             crawler.CrawlStats{PagesCrawled: 1},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	for _, key := range []string{"homepage", "otherPages", "reachedPageBudget", "hasSitemap", "stats"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Missing top-level key %q", key)
		}
	}

	homepage, ok := decoded["homepage"].(map[string]any)
	if !ok {
		t.Fatal("homepage is not an object")
	}
	if homepage["url"] != "https://acme.example/" {
		t.Errorf("homepage.url = %v", homepage["url"])
	}

	if !bytes.Contains(buf.Bytes(), []byte("\n  ")) {
		t.Error("Expected indented output")
	}
}

func TestWritePageJSON(t *testing.T) {
	var buf bytes.Buffer
	page := &crawler.PageContent{URL: "https://acme.example/about", StatusCode: 404}

	if err := WritePageJSON(&buf, page); err != nil {
		t.Fatalf("WritePageJSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded["statusCode"] != float64(404) {
		t.Errorf("statusCode = %v", decoded["statusCode"])
	}
	if _, ok := decoded["error"]; ok {
		t.Error("Empty error must be omitted from JSON")
	}
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := SaveJSON(path, sampleResult()); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Saved file is not valid JSON: %v", err)
	}
}
