// Package corporation checks corporation numbers against the onboarding backend.
package corporation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"onboarding-workers/internal/common/errors"
	commonhttp "onboarding-workers/internal/common/http"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"

	"golang.org/x/sync/singleflight"
)

// NumberLength is the only length the lookup service accepts.
const NumberLength = 9

const maxResponseBytes = 64 << 10

// ErrNotApplicable is returned without a network call when the number is not 9 characters.
var ErrNotApplicable = stderrors.New("corporation number lookup requires exactly 9 characters")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Dependencies struct {
	Cache      Cache
	Logger     logger.Logger
	HTTPClient *commonhttp.Client
}

// Client performs one GET per lookup, collapses concurrent identical lookups and caches
// successful answers. It never retries.
type Client struct {
	baseURL string
	timeout time.Duration
	cache   Cache
	logger  logger.Logger
	http    *commonhttp.Client
	group   singleflight.Group
}

func NewClient(cfg Config, deps Dependencies) *Client {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = commonhttp.NewClient(cfg.Timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		cache:   deps.Cache,
		logger:  deps.Logger,
		http:    deps.HTTPClient,
	}
}

type lookupResponse struct {
	Valid *bool `json:"valid"`
}

// CheckCorporationNumber reports whether the registry knows number.
func (c *Client) CheckCorporationNumber(ctx context.Context, number string) (bool, error) {
	if utf8.RuneCountInString(number) != NumberLength {
		metrics.CorporationLookups.WithLabelValues("not_applicable").Inc()
		return false, ErrNotApplicable
	}

	if valid, ok := c.fromCache(ctx, number); ok {
		return valid, nil
	}

	ch := c.group.DoChan(number, func() (interface{}, error) {
		// Shared by every waiter, so it must outlive the caller that started it.
		fctx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.timeout)
			defer cancel()
		}

		valid, err := c.fetch(fctx, number)
		if err != nil {
			return false, err
		}
		c.toCache(fctx, number, valid)
		return valid, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			metrics.CorporationLookups.WithLabelValues("error").Inc()
			c.logger.Warn("Corporation number lookup failed", map[string]interface{}{
				"corporationNumber": number,
				"shared":            res.Shared,
				"error":             res.Err.Error(),
			})
			return false, res.Err
		}
		valid := res.Val.(bool)
		if valid {
			metrics.CorporationLookups.WithLabelValues("valid").Inc()
		} else {
			metrics.CorporationLookups.WithLabelValues("invalid").Inc()
		}
		return valid, nil
	case <-ctx.Done():
		metrics.CorporationLookups.WithLabelValues("error").Inc()
		return false, classify(number, ctx.Err())
	}
}

func (c *Client) fromCache(ctx context.Context, number string) (bool, bool) {
	if c.cache == nil {
		return false, false
	}
	valid, err := c.cache.Find(ctx, number)
	switch {
	case err == nil:
		metrics.CorporationCache.WithLabelValues(c.cache.Name(), "hit").Inc()
		c.logger.Debug("Corporation number cache hit", map[string]interface{}{
			"corporationNumber": number,
			"valid":             valid,
		})
		return valid, true
	case stderrors.Is(err, ErrCacheMiss):
		metrics.CorporationCache.WithLabelValues(c.cache.Name(), "miss").Inc()
	default:
		metrics.CorporationCache.WithLabelValues(c.cache.Name(), "error").Inc()
		c.logger.Warn("Corporation number cache read failed, looking up directly", map[string]interface{}{
			"backend": c.cache.Name(),
			"error":   err.Error(),
		})
	}
	return false, false
}

func (c *Client) toCache(ctx context.Context, number string, valid bool) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(ctx, number, valid); err != nil {
		metrics.CorporationCache.WithLabelValues(c.cache.Name(), "error").Inc()
		c.logger.Warn("Corporation number cache write failed", map[string]interface{}{
			"backend": c.cache.Name(),
			"error":   err.Error(),
		})
	}
}

func (c *Client) fetch(ctx context.Context, number string) (bool, error) {
	endpoint := fmt.Sprintf("%s/corporation-number/%s", c.baseURL, url.PathEscape(number))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, errors.NewCorporationLookupFailedError(number, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Looking up corporation number", map[string]interface{}{
		"corporationNumber": number,
		"url":               endpoint,
	})

	start := time.Now()
	resp, err := c.http.DoWithContext(ctx, req)
	metrics.CorporationLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return false, classify(number, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, classify(number, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, errors.NewCorporationLookupFailedError(number,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var decoded lookupResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return false, errors.NewCorporationLookupFailedError(number, fmt.Errorf("decode response: %w", err))
	}
	if decoded.Valid == nil {
		return false, errors.NewCorporationLookupFailedError(number, fmt.Errorf("response has no valid field"))
	}
	return *decoded.Valid, nil
}

// classify maps transport errors to the lookup error codes.
func classify(number string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewCorporationLookupTimeoutError(number, err)
	}
	return errors.NewCorporationLookupFailedError(number, err)
}
