package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	tree, err := LoadFile("../../testdata/fixtures/todos.html")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := len(tree.Find("li.todo")); got != 2 {
		t.Errorf("found %d todos, want 2", got)
	}
	if tree.First("#app") == nil {
		t.Error("expected #app element")
	}

	if _, err := LoadFile("../../testdata/fixtures/missing.html"); err == nil {
		t.Error("LoadFile() on missing file should fail")
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantError    bool
		wantAttempts int32
	}{
		{
			name:         "successful fetch",
			statuses:     []int{http.StatusOK},
			wantAttempts: 1,
		},
		{
			name:         "retries server errors",
			statuses:     []int{http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK},
			wantAttempts: 3,
		},
		{
			name:         "client error is permanent",
			statuses:     []int{http.StatusNotFound},
			wantError:    true,
			wantAttempts: 1,
		},
		{
			name:         "gives up after max retries",
			statuses:     []int{500, 500, 500, 500, 500},
			wantError:    true,
			wantAttempts: 3, // first attempt plus two retries
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "domevents") {
					t.Errorf("User-Agent = %q, should contain 'domevents'", ua)
				}
				n := atomic.AddInt32(&attempts, 1)
				status := tt.statuses[len(tt.statuses)-1]
				if int(n) <= len(tt.statuses) {
					status = tt.statuses[n-1]
				}
				w.WriteHeader(status)
				w.Write([]byte(`<html><body><div id="host"></div></body></html>`)) // nolint:errcheck
			}))
			defer server.Close()

			loader := New(WithRetry(2, time.Millisecond))
			tree, err := loader.Load(context.Background(), server.URL)

			if tt.wantError {
				if err == nil {
					t.Error("Load() expected error, got nil")
				}
			} else {
				if err != nil {
					t.Fatalf("Load() unexpected error: %v", err)
				}
				if tree.First("#host") == nil {
					t.Error("expected #host in fetched page")
				}
			}
			if got := atomic.LoadInt32(&attempts); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(WithRetry(5, time.Millisecond)).Fetch(ctx, server.URL); err == nil {
		t.Error("Fetch() with cancelled context should fail")
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"https://example.com/page.html", true},
		{"http://localhost:8080", true},
		{"testdata/page.html", false},
		{"ftp://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := IsURL(tt.source); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}
