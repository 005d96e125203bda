package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ebonicra/WikiGraphExplorer/internal/cache"
	"github.com/ebonicra/WikiGraphExplorer/internal/ratelimit"
)

const corgiPage = `<html><body><div class="mw-content-ltr">
<a href="/wiki/Dog" title="Dog">dog</a>
<a href="/wiki/Herding_dog" title="Herding dog">herding</a>
<a href="/wiki/Dog" title="Dog">dog again</a>
</div></body></html>`

const missingPage = `<html><body><div class="mw-content-ltr">
<div class="noarticletext">Wikipedia does not have an article with this exact name.</div>
</div></body></html>`

func TestPageURL(t *testing.T) {
	tests := []struct {
		base, title, want string
	}{
		{"https://en.wikipedia.org/wiki/", "Welsh Corgi", "https://en.wikipedia.org/wiki/Welsh_Corgi"},
		{"https://en.wikipedia.org/wiki", "Welsh Corgi", "https://en.wikipedia.org/wiki/Welsh_Corgi"},
		{"https://en.wikipedia.org/wiki/", "Python (programming language)", "https://en.wikipedia.org/wiki/Python_%28programming_language%29"},
		{"https://en.wikipedia.org/wiki/", "AC/DC", "https://en.wikipedia.org/wiki/AC%2FDC"},
	}
	for _, tt := range tests {
		if got := PageURL(tt.base, tt.title); got != tt.want {
			t.Errorf("PageURL(%q, %q) = %q, want %q", tt.base, tt.title, got, tt.want)
		}
	}
}

func TestFetchOK(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(corgiPage))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/wiki/", UserAgent: "test-agent"})
	result, err := c.Fetch(context.Background(), "Welsh Corgi")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if result.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", result.Status)
	}
	if gotPath != "/wiki/Welsh_Corgi" {
		t.Errorf("path = %q, want %q", gotPath, "/wiki/Welsh_Corgi")
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "test-agent")
	}
	if !strings.Contains(string(result.Body), "Herding dog") {
		t.Error("body not returned")
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(missingPage))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/wiki/"})
	_, err := c.Fetch(context.Background(), "Nowhere")
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(corgiPage))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/wiki/", Backoff: time.Millisecond})
	if _, err := c.Fetch(context.Background(), "Welsh Corgi"); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/wiki/", Backoff: time.Millisecond, MaxRetries: 2})
	if _, err := c.Fetch(context.Background(), "Welsh Corgi"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/wiki/", Backoff: time.Millisecond})
	if _, err := c.Fetch(context.Background(), "Welsh Corgi"); err == nil {
		t.Fatal("expected error for 403")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestFetchUsesCacheValidators(t *testing.T) {
	var gotIfNoneMatch string
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if inm := r.Header.Get("If-None-Match"); inm != "" {
			gotIfNoneMatch = inm
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(corgiPage))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/wiki/", Cache: cache.New(t.TempDir())})

	first, err := c.Fetch(context.Background(), "Welsh Corgi")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.FromCache {
		t.Error("first fetch should come from the network")
	}

	second, err := c.Fetch(context.Background(), "Welsh Corgi")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FromCache {
		t.Error("second fetch should be served from cache")
	}
	if gotIfNoneMatch != `"v1"` {
		t.Errorf("If-None-Match = %q, want %q", gotIfNoneMatch, `"v1"`)
	}
	if string(second.Body) != corgiPage {
		t.Error("cached body differs from the first response")
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2", requests)
	}
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(corgiPage))
	}))
	defer srv.Close()

	lim := ratelimit.New(1, 1)
	defer lim.Stop()
	c := NewClient(Options{BaseURL: srv.URL + "/wiki/", Limiter: lim})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Fetch(ctx, "Welsh Corgi"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error status", &statusError{code: 503}, true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientError(tt.err); got != tt.want {
				t.Errorf("isTransientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
