package unique

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
	"github.com/dmitrymomot/validkit/pkg/logger"
)

// HTTPConfig configures an HTTPChecker from the environment.
type HTTPConfig struct {
	Endpoint string        `env:"UNIQUE_CHECK_URL"`
	Timeout  time.Duration `env:"UNIQUE_CHECK_TIMEOUT" envDefault:"5s"`
	Breaker  BreakerConfig `envPrefix:"UNIQUE_BREAKER_"`
}

// HTTPChecker asks a remote service whether a value is taken. It issues
// GET <endpoint>?scope=<scope>&value=<value> and expects a 2xx response with
// a JSON body {"exists": bool}. Other statuses become
// asyncvalidate.NetworkError values so the controller can classify them.
type HTTPChecker struct {
	endpoint *url.URL
	client   *http.Client
	headers  map[string]string
	breaker  *Breaker
	logger   *slog.Logger
}

// HTTPOption configures an HTTPChecker.
type HTTPOption func(*HTTPChecker)

// WithHTTPClient replaces the default client. A nil client is ignored.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPChecker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithHeader sends key: value with every lookup. Empty keys or values are ignored.
func WithHeader(key, value string) HTTPOption {
	return func(c *HTTPChecker) {
		if key != "" && value != "" {
			c.headers[key] = value
		}
	}
}

// WithBreaker guards lookups with b.
func WithBreaker(b *Breaker) HTTPOption {
	return func(c *HTTPChecker) {
		c.breaker = b
	}
}

// WithLogger sets the logger for failed lookups.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(c *HTTPChecker) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewHTTPChecker validates endpoint, which must be an absolute http or https URL.
func NewHTTPChecker(endpoint string, opts ...HTTPOption) (*HTTPChecker, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	c := &HTTPChecker{
		endpoint: u,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers: make(map[string]string),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewHTTPCheckerFromConfig builds a checker guarded by a Breaker sized by cfg.
func NewHTTPCheckerFromConfig(cfg HTTPConfig, opts ...HTTPOption) (*HTTPChecker, error) {
	base := []HTTPOption{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithBreaker(NewBreaker(cfg.Breaker)),
	}
	return NewHTTPChecker(cfg.Endpoint, append(base, opts...)...)
}

// Breaker returns the configured breaker, or nil.
func (c *HTTPChecker) Breaker() *Breaker {
	return c.breaker
}

func (c *HTTPChecker) Exists(ctx context.Context, scope, value string) (bool, error) {
	if c.breaker != nil {
		if err := c.breaker.Acquire(); err != nil {
			return false, &asyncvalidate.NetworkError{Kind: asyncvalidate.KindUnknown, Err: err}
		}
	}

	exists, err := c.lookup(ctx, scope, value)
	if c.breaker != nil {
		c.breaker.Report(err)
	}
	if err != nil {
		c.logger.DebugContext(ctx, "uniqueness lookup failed",
			logger.Component("unique.http"),
			slog.String("scope", scope),
			logger.Error(err))
	}
	return exists, err
}

func (c *HTTPChecker) lookup(ctx context.Context, scope, value string) (bool, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("scope", scope)
	q.Set("value", value)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "validkit-unique/1.0")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return false, asyncvalidate.NewStatusError(resp.StatusCode)
	}

	var body struct {
		Exists *bool `json:"exists"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return false, errors.Join(ErrBadResponse, err)
	}
	if body.Exists == nil {
		return false, fmt.Errorf("%w: missing \"exists\"", ErrBadResponse)
	}
	return *body.Exists, nil
}
