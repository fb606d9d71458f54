package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/resilience"
)

// Config defines client behavior
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RateLimit  float64 // requests per second, 0 = unlimited
	UserAgent  string
}

// DefaultConfig returns client defaults
func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		RetryCount: 2,
		UserAgent:  "ComponentHost/1.0",
	}
}

// Resource is a fetched document
type Resource struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
}

// StatusError reports a non-success HTTP status
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.Status, e.URL)
}

// errServerStatus marks 5xx responses as failures for the breaker
var errServerStatus = errors.New("server error status")

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker

	base   *url.URL
	logger *zap.Logger
	mu     sync.RWMutex
}

// New creates a client. Relative references are resolved against
// cfg.BaseURL; the client keeps a cookie jar so credentials set by the host
// flow into later requests.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var base *url.URL
	if cfg.BaseURL != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		base = parsed
	}

	// Pooled transport from retryablehttp; retries are driven by resty
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTransport(retryClient.HTTPClient.Transport).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1)
	}

	breaker := resilience.New("fetch", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Fetch circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		Resty:   restyClient,
		Limiter: limiter,
		Breaker: breaker,
		base:    base,
		logger:  logger,
	}, nil
}

// SetCookies seeds the cookie jar for the base URL
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetCookies(cookies)
}

// Resolve turns ref into an absolute URL using the base URL
func (c *Client) Resolve(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	if c.base == nil || parsed.IsAbs() {
		return parsed.String(), nil
	}
	return c.base.ResolveReference(parsed).String(), nil
}

// Request creates a request after admission by the breaker and limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// ExecuteWithBreaker runs an HTTP operation under breaker protection.
// Server errors count as failures; client errors do not.
func (c *Client) ExecuteWithBreaker(fn func() (*resty.Response, error)) (*resty.Response, error) {
	resp, err := resilience.Do(c.Breaker, func() (*resty.Response, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return nil, fmt.Errorf("host unavailable: %w", err)
	case errors.Is(err, errServerStatus):
		return resp, nil
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// Fetch GETs ref and returns the body; non-2xx statuses are *StatusError
func (c *Client) Fetch(ctx context.Context, ref string) (*Resource, error) {
	target, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.ExecuteWithBreaker(func() (*resty.Response, error) {
		return req.Get(target)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return nil, &StatusError{URL: target, Status: status}
	}

	c.logger.Debug("Fetched resource",
		zap.String("url", target),
		zap.Int("status", status),
		zap.Int("bytes", len(resp.Body())),
	)

	return &Resource{
		URL:         target,
		Status:      status,
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}
