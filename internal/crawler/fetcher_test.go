package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/sitelens/sitelens/internal/config"
)

func init() {
	// Disable slog output during testing
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(logger)
}

// testConfig returns defaults with delays shrunk for fast tests.
func testConfig() *config.CrawlConfig {
	cfg := config.DefaultConfig()
	cfg.RequestDelay = time.Millisecond
	cfg.ProbeDelay = time.Millisecond
	cfg.ProbeTimeout = 2 * time.Second
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func newTestFetcher() (*fetcher, *session) {
	cfg := testConfig()
	return newFetcher(cfg), newSession(10, cfg.ProbeTimeout)
}

func TestFetchHTMLPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Home</title></head>
			<body><h1>Welcome</h1><p>Hello there crawler.</p></body></html>`))
	}))
	defer server.Close()

	f, sess := newTestFetcher()
	pc := f.doFetch(context.Background(), sess, server.URL+"/")

	if pc.Error != "" {
		t.Fatalf("Unexpected error: %q", pc.Error)
	}
	if pc.StatusCode != 200 {
		t.Errorf("StatusCode = %d", pc.StatusCode)
	}
	if pc.Title != "Home" {
		t.Errorf("Title = %q", pc.Title)
	}
	if pc.WordCount == 0 {
		t.Error("Expected non-zero word count")
	}
	if pc.IsHTTPS {
		t.Error("Plain HTTP test server flagged as HTTPS")
	}
	if pc.ApproxResourceBytes == 0 {
		t.Error("Expected non-zero body size")
	}
	if pc.LoadTimeMs < 0 {
		t.Errorf("LoadTimeMs = %d", pc.LoadTimeMs)
	}
}

func TestFetch404PageStillAnalyzed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html><head><title>Missing</title></head>
			<body><h1>Page not found</h1><p>Try the search box.</p></body></html>`))
	}))
	defer server.Close()

	f, sess := newTestFetcher()
	pc := f.doFetch(context.Background(), sess, server.URL+"/gone")

	if pc.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", pc.StatusCode)
	}
	if pc.Error != "" {
		t.Errorf("4xx pages are analyzed, not errored; got %q", pc.Error)
	}
	if !reflect.DeepEqual(pc.Headings.H1, []string{"Page not found"}) {
		t.Errorf("H1 = %v; 404 body must be extracted", pc.Headings.H1)
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f, sess := newTestFetcher()
	pc := f.doFetch(context.Background(), sess, server.URL+"/boom")

	if pc.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", pc.StatusCode)
	}
	if pc.Error == "" {
		t.Error("Expected error outcome for 5xx")
	}
	if !reflect.DeepEqual(pc.Headings.H1, []string{"Error Page"}) {
		t.Errorf("H1 = %v, want classification title", pc.Headings.H1)
	}
	if pc.InternalLinks == nil || len(pc.InternalLinks) != 0 {
		t.Error("Error pages must carry empty, non-nil link slices")
	}
}

func TestFetchNonHTMLContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	f, sess := newTestFetcher()
	pc := f.doFetch(context.Background(), sess, server.URL+"/api")

	if pc.Error == "" {
		t.Fatal("Expected Non-HTML Content error outcome")
	}
	if !reflect.DeepEqual(pc.Headings.H1, []string{ClassNonHTML}) {
		t.Errorf("H1 = %v", pc.Headings.H1)
	}
	if pc.StatusCode != 200 {
		t.Errorf("StatusCode = %d; the HTTP status is preserved", pc.StatusCode)
	}
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL + "/unreachable"
	server.Close()

	f, sess := newTestFetcher()
	pc := f.doFetch(context.Background(), sess, target)

	if pc.Error == "" {
		t.Fatal("Expected network error outcome")
	}
	if pc.StatusCode != StatusNetworkError {
		t.Errorf("StatusCode = %d, want %d", pc.StatusCode, StatusNetworkError)
	}
	if pc.WordCount != 0 {
		t.Errorf("WordCount = %d, want 0 on error pages", pc.WordCount)
	}
}

func TestFetchDNSError(t *testing.T) {
	f, sess := newTestFetcher()
	sess.resolver.lookup = func(ctx context.Context, host string) ([]string, error) {
		return nil, errors.New("no such host")
	}

	pc := f.doFetch(context.Background(), sess, "https://unresolvable.example/")

	if pc.StatusCode != StatusDNSError {
		t.Errorf("StatusCode = %d, want %d", pc.StatusCode, StatusDNSError)
	}
	if !reflect.DeepEqual(pc.Headings.H1, []string{ClassDNSError}) {
		t.Errorf("H1 = %v, want [DNS Error]", pc.Headings.H1)
	}
	if pc.Error == "" {
		t.Error("Expected non-empty error message")
	}
}

func TestFetchSecurityHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/hardened" {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Content-Security-Policy", "default-src 'self'")
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer server.Close()

	f, sess := newTestFetcher()

	hardened := f.doFetch(context.Background(), sess, server.URL+"/hardened")
	if !hardened.HasSecurityHeaders {
		t.Error("Expected security headers flag with 3 headers set")
	}

	plain := f.doFetch(context.Background(), sess, server.URL+"/plain")
	if plain.HasSecurityHeaders {
		t.Error("Did not expect security headers flag with none set")
	}
}

func TestFetchBodyCap(t *testing.T) {
	big := make([]byte, 64*1024)
	for i := range big {
		big[i] = 'a'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>"))
		_, _ = w.Write(big)
		_, _ = w.Write([]byte("</p></body></html>"))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = 1024
	f := newFetcher(cfg)
	sess := newSession(10, cfg.ProbeTimeout)

	pc := f.doFetch(context.Background(), sess, server.URL+"/big")
	if pc.ApproxResourceBytes > 1024 {
		t.Errorf("Body cap not enforced: read %d bytes", pc.ApproxResourceBytes)
	}
}
