package httputil

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/mvnresolve/pkg/cache"
	"github.com/matzehuels/mvnresolve/pkg/errors"
)

func testClient(t *testing.T, server *httptest.Server, ch cache.Cache) *Client {
	t.Helper()
	return NewClient(ch, WithHTTPClient(server.Client()), WithRetry(3, time.Millisecond))
}

func TestFetch(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		gotHeader = r.Header.Get("User-Agent")
		w.Write([]byte("<metadata/>"))
	}))
	defer server.Close()

	client := NewClient(nil, WithHTTPClient(server.Client()), WithHeaders(map[string]string{"User-Agent": "mvnresolve-test"}))
	data, err := client.Fetch(context.Background(), server.URL+"/maven-metadata.xml", 0)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "<metadata/>" {
		t.Errorf("Fetch() = %q", data)
	}
	if gotHeader != "mvnresolve-test" {
		t.Errorf("User-Agent = %q", gotHeader)
	}
}

func TestFetchCached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("body"))
	}))
	defer server.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := testClient(t, server, fc)
	ctx := context.Background()

	for range 3 {
		if _, err := client.Fetch(ctx, server.URL+"/a", time.Hour); err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}

	// ttl 0 bypasses the cache.
	if _, err := client.Fetch(ctx, server.URL+"/a", 0); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errors.Code
	}{
		{"not found", http.StatusNotFound, errors.ErrCodeNotFound},
		{"gone", http.StatusGone, errors.ErrCodeNotFound},
		{"forbidden", http.StatusForbidden, errors.ErrCodeTransport},
		{"server error", http.StatusBadGateway, errors.ErrCodeTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testClient(t, server, nil).Fetch(context.Background(), server.URL, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("Fetch() error = %v, want %s", err, tt.want)
			}
			if cache.IsRetryable(err) {
				t.Error("retry marker leaked to the caller")
			}
		})
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	data, err := testClient(t, server, nil).Fetch(context.Background(), server.URL, 0)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "ok" || calls.Load() != 3 {
		t.Errorf("Fetch() = %q after %d calls", data, calls.Load())
	}
}

func TestFetchNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, _ = testClient(t, server, nil).Fetch(context.Background(), server.URL, 0)
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestFetchCoalescesConcurrentRequests(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte("shared"))
	}))
	defer server.Close()

	client := testClient(t, server, nil)
	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := client.Fetch(context.Background(), server.URL, 0)
			if err != nil {
				t.Errorf("Fetch() error: %v", err)
			}
			results[i] = string(data)
		}()
	}
	// Give every goroutine time to join the in-flight request.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("results[%d] = %q", i, r)
		}
	}
}

func TestFetchCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("late"))
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := testClient(t, server, nil).Fetch(ctx, server.URL, 0)
	if !errors.IsCancelled(err) {
		t.Errorf("Fetch() error = %v, want cancellation", err)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PK\x03\x04jar bytes"))
	}))
	defer server.Close()

	var buf bytes.Buffer
	if err := testClient(t, server, nil).Download(context.Background(), server.URL+"/x-1.0.jar", &buf); err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if buf.String() != "PK\x03\x04jar bytes" {
		t.Errorf("Download() wrote %q", buf.String())
	}
}

func TestDefaultClientLeavesBodyUnbounded(t *testing.T) {
	c := NewClient(nil)
	if c.http.Timeout != 0 {
		t.Errorf("http.Client.Timeout = %v, want 0", c.http.Timeout)
	}
	tr, ok := c.http.Transport.(*http.Transport)
	if !ok || tr.ResponseHeaderTimeout != HeaderTimeout {
		t.Errorf("transport = %+v, want ResponseHeaderTimeout %v", c.http.Transport, HeaderTimeout)
	}
}

func TestDownloadSlowBodyOutlivesHeaderTimeout(t *testing.T) {
	const headerTimeout = 50 * time.Millisecond
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 1024))
		w.(http.Flusher).Flush()
		time.Sleep(4 * headerTimeout)
		w.Write([]byte("end"))
	}))
	defer server.Close()

	client := NewClient(nil, WithHTTPClient(newHTTPClient(headerTimeout)), WithRetry(1, time.Millisecond))
	var buf bytes.Buffer
	if err := client.Download(context.Background(), server.URL+"/big-1.0.jar", &buf); err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if buf.Len() != 1027 {
		t.Errorf("Download() wrote %d bytes, want 1027", buf.Len())
	}
}

func TestHeaderTimeout(t *testing.T) {
	const headerTimeout = 50 * time.Millisecond
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(nil, WithHTTPClient(newHTTPClient(headerTimeout)), WithRetry(1, time.Millisecond))
	_, err := client.Fetch(context.Background(), server.URL, 0)
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("Fetch() error = %v, want TRANSPORT", err)
	}
}
