package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestResolverCachesSuccess(t *testing.T) {
	r := newResolverCache(2 * time.Second)
	lookups := 0
	r.lookup = func(ctx context.Context, host string) ([]string, error) {
		lookups++
		return []string{"192.0.2.1"}, nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := r.Resolve(ctx, "example.com"); err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	}
	if lookups != 1 {
		t.Errorf("Expected 1 lookup, got %d", lookups)
	}
}

func TestResolverCachesFailure(t *testing.T) {
	r := newResolverCache(2 * time.Second)
	lookups := 0
	r.lookup = func(ctx context.Context, host string) ([]string, error) {
		lookups++
		return nil, errors.New("no such host")
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := r.Resolve(ctx, "missing.invalid"); err == nil {
			t.Fatal("Expected resolution failure")
		}
	}
	if lookups != 1 {
		t.Errorf("Failures must be terminal for the session; got %d lookups", lookups)
	}
}

func TestResolverCoalescesConcurrentLookups(t *testing.T) {
	r := newResolverCache(2 * time.Second)
	var lookups int
	var mu sync.Mutex
	r.lookup = func(ctx context.Context, host string) ([]string, error) {
		mu.Lock()
		lookups++
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return []string{"192.0.2.1"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Resolve(context.Background(), "example.com"); err != nil {
				t.Errorf("Resolve returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if lookups != 1 {
		t.Errorf("Expected concurrent lookups to coalesce into 1, got %d", lookups)
	}
}

func TestResolverEmptyHost(t *testing.T) {
	r := newResolverCache(time.Second)
	if err := r.Resolve(context.Background(), ""); err == nil {
		t.Error("Expected error for empty hostname")
	}
}
