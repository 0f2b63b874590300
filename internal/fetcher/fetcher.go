package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 5
	defaultBackoff     = 300 * time.Millisecond
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

	// maxRedirects caps redirect chains to prevent loops.
	maxRedirects = 10
)

// retryStatuses are the HTTP statuses that trigger another attempt.
var retryStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusGatewayTimeout:      true,
}

// Response is a successfully fetched page.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status code (always 2xx).
	StatusCode int

	// Header contains the response headers as received.
	Header http.Header

	// Body is the decoded response body.
	Body []byte
}

// WireSize returns the declared Content-Length of the response, or the
// decoded body length when the header is absent or malformed.
func (r *Response) WireSize() int64 {
	if v := r.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return int64(len(r.Body))
}

// HTTPFetcher fetches URLs with retries.
// It is safe for concurrent use by multiple crawl workers.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBodySize int64

	// Transport settings, applied when the client is built.
	insecure      bool
	proxyURL      string
	cookie        string
	headers       map[string]string
	ratePerSecond float64

	// sleep waits between attempts. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout sets the timeout for each attempt, body read included.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithMaxAttempts sets the total number of attempts per request.
func WithMaxAttempts(n int) Option {
	return func(f *HTTPFetcher) {
		f.maxAttempts = n
	}
}

// WithBackoff sets the base delay between attempts.
// The delay before attempt n+1 is backoff * 2^(n-1).
func WithBackoff(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.backoff = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum decoded body size.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// The fingerprint fetch uses it so that a site with a broken certificate
// can still be fingerprinted.
func WithInsecureSkipVerify() Option {
	return func(f *HTTPFetcher) {
		f.insecure = true
	}
}

// WithProxy routes all requests through the given proxy URL
// (http://, https://, socks5:// or socks5h://).
func WithProxy(proxyURL string) Option {
	return func(f *HTTPFetcher) {
		f.proxyURL = proxyURL
	}
}

// WithCookie adds a raw cookie string (e.g., "session=abc") to every request.
func WithCookie(cookie string) Option {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithHeaders sets extra headers on every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// WithRateLimit caps requests per second across all users of the fetcher.
// Retries count as requests. A value <= 0 disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(f *HTTPFetcher) {
		f.ratePerSecond = perSecond
	}
}

// New creates an HTTPFetcher.
//
// Design decision: We build the http.Client here rather than accepting one
// because:
//  1. Compression must be disabled on the transport for bandwidth accounting
//  2. Proxy, TLS and header injection all live on the transport
//  3. Tests still substitute the network with httptest servers
func New(opts ...Option) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		userAgent:   defaultUserAgent,
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		maxBodySize: defaultMaxBodySize,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxAttempts < 1 {
		f.maxAttempts = 1
	}
	if f.maxBodySize <= 0 {
		f.maxBodySize = defaultMaxBodySize
	}
	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}

	client, err := f.newClient()
	if err != nil {
		return nil, err
	}
	f.client = client
	return f, nil
}

// newClient builds the HTTP client from the transport settings.
func (f *HTTPFetcher) newClient() (*http.Client, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Bodies are decoded in readBody. Automatic decompression would
		// strip Content-Length.
		DisableCompression: true,
	}
	if f.insecure {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Fingerprinting only reads public markup
		}
	}
	if err := configureProxy(transport, f.proxyURL); err != nil {
		return nil, err
	}

	var rt http.RoundTripper = transport
	if f.cookie != "" || len(f.headers) > 0 {
		rt = &headerInjectingTransport{base: rt, cookie: f.cookie, headers: f.headers}
	}
	if f.ratePerSecond > 0 {
		rt = &rateLimitedTransport{base: rt, limiter: rate.NewLimiter(rate.Limit(f.ratePerSecond), 1)}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   f.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// Get fetches rawURL. A 2xx response is returned as a Response. Transport
// errors, body read errors and 500/502/504 responses are retried until the
// attempts run out; other statuses fail at once. All failures are
// *FetchError. Cancelling ctx aborts the current attempt or backoff wait.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := f.sleep(ctx, f.backoffFor(attempt-1)); err != nil {
				return nil, &FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: attempt - 1, Err: err}
			}
		}

		resp, retry, err := f.do(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		lastStatus = 0
		if resp != nil {
			lastStatus = resp.StatusCode
		}
		if ctx.Err() != nil {
			return nil, &FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: attempt, Err: ctx.Err()}
		}
		if !retry {
			return nil, &FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: attempt, Err: err}
		}
	}

	return nil, &FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: f.maxAttempts, Err: lastErr}
}

// backoffFor returns the delay after the given completed attempt.
func (f *HTTPFetcher) backoffFor(completed int) time.Duration {
	return f.backoff * time.Duration(1<<(completed-1))
}

// do performs one attempt. On a non-2xx status it returns the response
// (without body) together with an error, so the caller can record the code.
func (f *HTTPFetcher) do(ctx context.Context, rawURL string) (*Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	httpResp, err := f.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer httpResp.Body.Close()

	finalURL := rawURL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}
	resp := &Response{
		URL:        finalURL,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 64*1024)) //nolint:errcheck // drain for connection reuse
		return resp, retryStatuses[httpResp.StatusCode], fmt.Errorf("%w: %d", ErrStatus, httpResp.StatusCode)
	}

	body, err := f.readBody(httpResp)
	if err != nil {
		return resp, !errors.Is(err, ErrBodyTooLarge), err
	}
	resp.Body = body
	return resp, false, nil
}

// readBody decodes the body according to Content-Encoding and enforces the
// size limit on the decoded bytes.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, f.maxBodySize)
	}
	return body, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
