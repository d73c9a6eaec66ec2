package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/wikilists/internal/cache"
)

// DefaultMaxBodyBytes bounds a single converter response. Large articles
// produce DOMs of a few megabytes.
const DefaultMaxBodyBytes = 64 << 20

// Client fetches converter documents over HTTP with timeouts, bounded
// retry on transient errors, and an optional validator-based disk cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for GET bodies and validators.
	Cache *cache.HTTPCache
	// Cacheable reports whether a 200 body may be stored. Nil stores every
	// 200. Converters answer failures with 200 too, and those must not
	// be revalidated and replayed later.
	Cacheable func(body []byte) bool
	// AllowedContentTypes lists accepted media type prefixes. Empty means
	// JSON only.
	AllowedContentTypes []string
	// MaxBodyBytes caps the response size. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	if e.Status >= 500 {
		return fmt.Sprintf("server error: %d", e.Status)
	}
	return fmt.Sprintf("unexpected status: %d", e.Status)
}

// Transient reports whether retrying the request may succeed.
func (e *StatusError) Transient() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET for a converter document. Transient failures (5xx,
// 429, per-request deadline) are retried up to MaxAttempts with a linear
// backoff. With a cache, stored validators are sent and a 304 is served
// from disk.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	etag, lastMod := c.validators(ctx, rawURL)
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var (
		body []byte
		ct   string
	)
	err := retry.Do(
		func() error {
			res, err := c.tryOnce(ctx, rawURL, etag, lastMod)
			if err == nil && res.status == http.StatusNotModified {
				if cached, cerr := c.Cache.LoadBody(ctx, rawURL); cerr == nil {
					log.Debug().Str("url", rawURL).Msg("served from cache")
					body, ct = cached, res.contentType
					return nil
				}
				// validators matched but the body is gone
				etag, lastMod = "", ""
				res, err = c.tryOnce(ctx, rawURL, "", "")
			}
			if err != nil {
				return err
			}
			if res.status == http.StatusNotModified {
				return &StatusError{URL: rawURL, Status: res.status}
			}
			c.store(ctx, rawURL, res)
			body, ct = res.body, res.contentType
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * 200 * time.Millisecond
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n+1).Str("url", rawURL).Msg("transient fetch error; retrying")
		}),
	)
	if err != nil {
		return nil, "", err
	}
	return body, ct, nil
}

func (c *Client) validators(ctx context.Context, rawURL string) (string, string) {
	if c.Cache == nil {
		return "", ""
	}
	meta, err := c.Cache.LoadMeta(ctx, rawURL)
	if err != nil || meta == nil {
		return "", ""
	}
	return meta.ETag, meta.LastModified
}

func (c *Client) store(ctx context.Context, rawURL string, res response) {
	if c.Cache == nil || res.status != http.StatusOK {
		return
	}
	if c.Cacheable != nil && !c.Cacheable(res.body) {
		log.Debug().Str("url", rawURL).Msg("response not cached")
		return
	}
	if err := c.Cache.Save(ctx, rawURL, res.contentType, res.etag, res.lastModified, res.body); err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("cache save failed")
	}
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (response, error) {
	if err := c.acquire(ctx); err != nil {
		return response{}, err
	}
	defer c.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return response{}, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	httpClient := c.getHTTPClient()
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	out := response{
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
	}
	if resp.StatusCode == http.StatusNotModified {
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{URL: rawURL, Status: resp.StatusCode}
	}
	if !c.allowedContentType(out.contentType) {
		return out, fmt.Errorf("unsupported content type: %s", out.contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return out, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > limit {
		return out, fmt.Errorf("response exceeds %d bytes", limit)
	}
	out.body = b
	return out, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return false
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

var defaultContentTypes = []string{"application/json", "text/json", "application/ld+json"}

func (c *Client) allowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	allowed := c.AllowedContentTypes
	if len(allowed) == 0 {
		allowed = defaultContentTypes
	}
	for _, p := range allowed {
		if strings.HasPrefix(ct, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// acquire takes a slot of the concurrency gate, giving up when ctx ends.
func (c *Client) acquire(ctx context.Context) error {
	if c.MaxConcurrent <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
