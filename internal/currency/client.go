// Package currency fetches exchange rates and fills converted amounts on unpaid payments.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"weddingplan/internal/config"
	"weddingplan/internal/logger"
)

// ErrRateUnavailable is returned when the rate service has no rate for a currency pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

type cachedRate struct {
	value     float64
	expiresAt time.Time
}

// Client implements port.RateProvider against a frankfurter-style HTTP API:
// GET {base}/latest?from=EUR&to=USD returns {"rates":{"USD":1.08}}.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
	ttl        time.Duration
	now        func() time.Time
	log        *zap.Logger

	mu    sync.RWMutex
	cache map[string]cachedRate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a rate client. Requests are token-bucket limited to
// cfg.RequestsPerSecond; concurrent lookups of the same pair share one request.
func NewClient(cfg config.CurrencyConfig, log *zap.Logger, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		rps = rate.Inf
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rps, 1),
		ttl:        cfg.CacheTTL,
		now:        time.Now,
		log:        logger.OrNop(log),
		cache:      make(map[string]cachedRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rate returns how many units of to one unit of from buys.
func (c *Client) Rate(ctx context.Context, from, to string) (float64, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, fmt.Errorf("currency.Rate: %w: missing currency code", ErrRateUnavailable)
	}
	if from == to {
		return 1, nil
	}

	key := from + ":" + to
	if v, ok := c.cached(key); ok {
		return v, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.cached(key); ok {
			return v, nil
		}
		r, err := c.fetch(ctx, from, to)
		if err != nil {
			return 0.0, err
		}
		c.store(key, r)
		return r, nil
	})
	if err != nil {
		return 0, fmt.Errorf("currency.Rate: %w", err)
	}
	if shared {
		c.log.Debug("currency.Rate: shared in-flight lookup", zap.String("pair", key))
	}
	return v.(float64), nil
}

func (c *Client) cached(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.cache[key]
	if !ok || (c.ttl > 0 && !c.now().Before(e.expiresAt)) {
		return 0, false
	}
	return e.value, true
}

func (c *Client) store(key string, v float64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cachedRate{value: v, expiresAt: c.now().Add(c.ttl)}
}

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) fetch(ctx context.Context, from, to string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+q.Encode(), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling rate API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed latestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("unmarshaling response: %w", err)
	}
	r, ok := parsed.Rates[to]
	if !ok || r <= 0 {
		return 0, fmt.Errorf("%w: %s to %s", ErrRateUnavailable, from, to)
	}

	c.log.Info("currency.Rate: fetched",
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("rate", r),
	)
	return r, nil
}
