package httputil

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/mvnresolve/pkg/cache"
	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/observability"
)

// HeaderTimeout bounds connection setup and the wait for response headers.
// Bodies are bounded only by the caller's context so large artifacts can stream.
const HeaderTimeout = 30 * time.Second

func newHTTPClient(headerTimeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: headerTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = headerTimeout
	t.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: t}
}

// Client performs GET requests against repository servers.
type Client struct {
	http     *http.Client
	cache    cache.Cache
	headers  map[string]string
	attempts int
	delay    time.Duration
	group    singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeaders sets headers sent on every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.attempts, c.delay = attempts, delay }
}

// NewClient returns a Client caching into ch. A nil ch disables caching.
func NewClient(ch cache.Cache, opts ...Option) *Client {
	if ch == nil {
		ch = cache.NewNullCache()
	}
	c := &Client{
		http:     newHTTPClient(HeaderTimeout),
		cache:    ch,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the body at rawURL. With ttl > 0 a cached body is returned
// when present and a fresh one is stored for ttl; with ttl == 0 the cache is
// bypassed. Concurrent fetches of the same URL share one request.
func (c *Client) Fetch(ctx context.Context, rawURL string, ttl time.Duration) ([]byte, error) {
	key := cache.HTTPKey(rawURL)
	if ttl > 0 {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, "http")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}

	// The shared request must outlive any single caller; each caller stops
	// waiting on its own context.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(rawURL, func() (any, error) {
		var body []byte
		err := cache.Retry(shared, c.attempts, c.delay, func() error {
			var err error
			body, err = c.get(shared, rawURL)
			return err
		})
		if err != nil {
			return nil, err
		}
		if ttl > 0 {
			if err := c.cache.Set(shared, key, body, ttl); err == nil {
				observability.Cache().OnCacheSet(shared, "http", len(body))
			}
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, unwrapRetryable(res.Err)
		}
		return res.Val.([]byte), nil
	}
}

// Download streams the body at rawURL into w. Retries happen only while
// nothing has been written yet.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) error {
	cw := &countingWriter{w: w}
	err := cache.Retry(ctx, c.attempts, c.delay, func() error {
		body, err := c.open(ctx, rawURL)
		if err != nil {
			return err
		}
		defer body.Close()
		if _, err := io.Copy(cw, body); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err := errors.Wrap(errors.ErrCodeTransport, err, "reading body").At(rawURL)
			if cw.n == 0 {
				return cache.Retryable(err)
			}
			return err
		}
		return nil
	})
	return unwrapRetryable(err)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeTransport, err, "reading body").At(rawURL))
	}
	return data, nil
}

func (c *Client) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "building request").At(rawURL)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeTransport, err, "request failed").At(rawURL))
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, rawURL); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int, rawURL string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return errors.New(errors.ErrCodeNotFound, "not found").At(rawURL)
	case code >= 500 || code == http.StatusTooManyRequests:
		return cache.Retryable(errors.New(errors.ErrCodeTransport, "status %d", code).At(rawURL))
	default:
		return errors.New(errors.ErrCodeTransport, "status %d", code).At(rawURL)
	}
}

// unwrapRetryable strips the retry marker once retries are exhausted.
func unwrapRetryable(err error) error {
	for {
		re, ok := err.(*cache.RetryableError)
		if !ok {
			return err
		}
		err = re.Err
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
