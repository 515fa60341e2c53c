// Package api implements the rate-limited JSON HTTP client used to fetch
// faction, station, tick and project-board data.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/bgsforge/powerstate/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrUnexpectedStatus is wrapped by every *StatusError.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrRetriesExhausted is returned when a request stays throttled after MaxRetries.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// StatusError is a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Rate limit headers sent by EDSM.
const (
	headerRemaining  = "X-Rate-Limit-Remaining"
	headerLimit      = "X-Rate-Limit-Limit"
	headerReset      = "X-Rate-Limit-Reset"
	headerRetryAfter = "Retry-After"
)

const maxBodySize = 32 << 20

// Options configures a Client. Zero values select the defaults.
type Options struct {
	// RequestsPerSecond spaces requests client-side; 0 disables it.
	RequestsPerSecond float64

	// MinWait and MaxWait clamp Retry-After.
	MinWait time.Duration
	MaxWait time.Duration

	// MaxRetries bounds the retries of one throttled request.
	MaxRetries int

	// LowWatermark is the remaining-quota value below which the client
	// pauses until the quota resets.
	LowWatermark int

	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger

	// Sleep replaces the context-aware sleep, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o *Options) setDefaults() {
	if o.MinWait <= 0 {
		o.MinWait = 10 * time.Second
	}
	if o.MaxWait <= 0 {
		o.MaxWait = 60 * time.Second
	}
	if o.MaxWait < o.MinWait {
		o.MaxWait = o.MinWait
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 5
	}
	if o.LowWatermark <= 0 {
		o.LowWatermark = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
}

// Client performs throttled GET requests and decodes JSON bodies.
type Client struct {
	opts    Options
	limiter *rate.Limiter
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	opts.setDefaults()
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{opts: opts, limiter: rate.NewLimiter(limit, 1)}
}

// GetJSON fetches url and decodes the body into out. A 429 carrying
// Retry-After is retried up to MaxRetries times; any other non-200
// status is a *StatusError.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}

		status, header, body, err := c.get(ctx, url)
		if err != nil {
			return err
		}

		if wait, ok := c.quotaWait(header); ok {
			c.opts.Logger.Info("nearing request cap, waiting",
				logging.String("url", url), logging.Duration("wait", wait))
			if err := c.opts.Sleep(ctx, wait); err != nil {
				return err
			}
		}

		if status == http.StatusTooManyRequests {
			if wait, ok := c.retryAfter(header); ok {
				if attempt > c.opts.MaxRetries {
					return fmt.Errorf("GET %s: %w after %d attempts", url, ErrRetriesExhausted, attempt)
				}
				c.opts.Logger.Warn("too many requests, retrying",
					logging.String("url", url),
					logging.Int("attempt", attempt),
					logging.Duration("wait", wait))
				if err := c.opts.Sleep(ctx, wait); err != nil {
					return err
				}
				continue
			}
		}

		if status != http.StatusOK {
			return &StatusError{URL: url, StatusCode: status}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s: %w", url, err)
		}
		return nil
	}
}

func (c *Client) get(ctx context.Context, url string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read %s: %w", url, err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// quotaWait returns ceil(reset/limit) seconds when the remaining quota is
// below the low watermark.
func (c *Client) quotaWait(h http.Header) (time.Duration, bool) {
	remaining, err1 := strconv.Atoi(h.Get(headerRemaining))
	limit, err2 := strconv.ParseFloat(h.Get(headerLimit), 64)
	reset, err3 := strconv.ParseFloat(h.Get(headerReset), 64)
	if err1 != nil || err2 != nil || err3 != nil || limit <= 0 {
		return 0, false
	}
	if remaining >= c.opts.LowWatermark {
		return 0, false
	}
	return time.Duration(math.Ceil(reset/limit)) * time.Second, true
}

func (c *Client) retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get(headerRetryAfter)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		secs = 0
	}
	wait := time.Duration(secs) * time.Second
	return min(max(wait, c.opts.MinWait), c.opts.MaxWait), true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
