// Package fetch provides the paced HTTP client used for every marketplace request.
// All requests share one Pacer, so concurrent scans are spread over a single
// global cadence instead of each pacing itself.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Transport defaults.
const (
	DefaultTimeout             = 30 * time.Second
	DefaultConnectTimeout      = 10 * time.Second
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxIdleConnsPerHost = 10
	MaxRedirects               = 10

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 16 << 20
)

// Error represents a failed fetch, possibly after several attempts.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Attempts   int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL             string
	Timeout             time.Duration
	ConnectTimeout      time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConnsPerHost int
	Pacer               *Pacer
	Sleep               SleepFunc
}

// Client issues paced GET requests with browser-like headers and bounded retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pacer      *Pacer
	sleep      SleepFunc
}

// NewClient builds a client with a pooled transport and a session cookie jar.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.IdleConnTimeout <= 0 {
		opts.IdleConnTimeout = DefaultIdleConnTimeout
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if opts.Pacer == nil {
		opts.Pacer = NewPacer(nil)
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     opts.IdleConnTimeout,
		TLSHandshakeTimeout: opts.ConnectTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", MaxRedirects)
				}
				return nil
			},
		},
		baseURL: opts.BaseURL,
		pacer:   opts.Pacer,
		sleep:   opts.Sleep,
	}, nil
}

// BaseURL returns the marketplace base URL the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Pacer returns the shared pacer.
func (c *Client) Pacer() *Pacer {
	return c.pacer
}

// Fetch retrieves urlStr and returns the response body.
// Every attempt, the first included, is preceded by the pacer's delay.
// Transport errors, 5xx and 429 are retried until maxAttempts attempts have
// been made; any other non-2xx status fails immediately.
func (c *Client) Fetch(ctx context.Context, urlStr string, maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	var lastErr error
	lastStatus := 0
	for attempt := 1; ; attempt++ {
		pace := c.pacer.Next()
		if err := c.sleep(ctx, pace.Delay); err != nil {
			return "", &Error{URL: urlStr, Message: "cancelled while waiting", Attempts: attempt - 1, Cause: err}
		}

		log.Printf("[fetch] attempt %d/%d %s", attempt, maxAttempts, urlStr)
		body, status, err := c.do(ctx, urlStr, pace.UserAgent)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", &Error{URL: urlStr, Message: "request cancelled", Attempts: attempt, Cause: ctx.Err()}
			}
			log.Printf("[fetch] network error for %s: %v", urlStr, err)
			lastErr, lastStatus = err, 0
		case status >= 200 && status < 300:
			return body, nil
		case status >= 500 || status == http.StatusTooManyRequests:
			log.Printf("[fetch] server status %d for %s", status, urlStr)
			lastErr, lastStatus = nil, status
		default:
			return "", &Error{
				URL:        urlStr,
				Message:    fmt.Sprintf("client error status %d", status),
				StatusCode: status,
				Attempts:   attempt,
			}
		}

		if attempt >= maxAttempts {
			msg := fmt.Sprintf("giving up after %d attempts", attempt)
			if lastStatus != 0 {
				msg = fmt.Sprintf("%s, last status %d", msg, lastStatus)
			}
			return "", &Error{
				URL:        urlStr,
				Message:    msg,
				StatusCode: lastStatus,
				Attempts:   attempt,
				Retryable:  true,
				Cause:      lastErr,
			}
		}
	}
}

// do performs a single GET and reads the body of successful responses.
func (c *Client) do(ctx context.Context, urlStr, userAgent string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header = BrowserHeaders(urlStr, c.baseURL, userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", resp.StatusCode, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return string(data), resp.StatusCode, nil
}

// Sleep waits for d unless ctx finishes first.
func Sleep(ctx context.Context, d time.Duration) error {
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

// IsRetryable reports whether err is a fetch failure that may succeed later.
func IsRetryable(err error) bool {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable
	}
	return false
}
