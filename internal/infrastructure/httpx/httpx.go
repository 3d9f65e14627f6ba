package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"tickerboard/internal/infrastructure/metrics"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const maxErrBody = 512

// RetryPolicy bounds attempts per request. The wait before the retry that
// follows failed attempt k is 2^k * BaseDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 2 * p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = p.BaseDelay << attempts
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithMaxRetries(exp, uint64(attempts-1))
}

// Delays lists the waits a request that keeps failing goes through.
func (p RetryPolicy) Delays() []time.Duration {
	b := p.backOff()
	b.Reset()
	var out []time.Duration
	for d := b.NextBackOff(); d != backoff.Stop; d = b.NextBackOff() {
		out = append(out, d)
	}
	return out
}

// StatusError is a non-2xx answer from the upstream.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt: client
// errors are final except 418 and 429, which exchanges use for rate limits.
func (e *StatusError) Retryable() bool { return RetryableStatus(e.Code) }

func RetryableStatus(code int) bool {
	if code == http.StatusTeapot || code == http.StatusTooManyRequests {
		return true
	}
	return code < 400 || code > 499
}

// Client performs GET requests against exchange APIs with bounded retries.
type Client struct {
	HTTP      *http.Client
	Retry     RetryPolicy
	UserAgent string
	Log       *zap.Logger
	// OnRetry, when set, is called before every wait.
	OnRetry func(err error, wait time.Duration)
}

func New(timeout time.Duration, retry RetryPolicy, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		Retry:     retry,
		UserAgent: "tickerboard/1.0",
		Log:       log,
	}
}

// Get returns the body of a 2xx response. When retries are exhausted the
// error of the last attempt is returned.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	host := hostOf(rawURL)

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.once(ctx, rawURL)
		if err == nil {
			metrics.ObserveUpstream(host, "ok")
			body = b
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			metrics.ObserveUpstream(host, "terminal")
			return backoff.Permanent(err)
		}
		metrics.ObserveUpstream(host, "retryable")
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("upstream.retry",
			zap.String("host", host),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if c.OnRetry != nil {
			c.OnRetry(err, wait)
		}
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(c.Retry.backOff(), ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) once(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return b, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
