// Package client holds the typed HTTP adapters for the peer services
// (catalog, account, review, license). Every adapter maps wire failures to
// the orchestrator's tagged errors: 404 becomes not-found, anything else
// that keeps failing becomes upstream-unavailable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gamestore/order-service/internal/order"
)

// Config is shared by all four adapters.
type Config struct {
	Timeout time.Duration // per-call timeout
	Retries int           // extra attempts for idempotent reads
	Backoff time.Duration // first retry delay, doubled per attempt
}

// httpError carries the non-2xx status up to the retry loop.
type httpError struct {
	status int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

var errNotFound = errors.New("remote record not found")

// baseClient is the shared plumbing under the adapters.
type baseClient struct {
	http    *http.Client
	baseURL string
	service string
	retries int
	backoff time.Duration
}

func newBaseClient(baseURL, service string, cfg Config) *baseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &baseClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		service: service,
		retries: cfg.Retries,
		backoff: backoff,
	}
}

// getJSON performs an idempotent read with bounded retries and exponential
// backoff on transport failures and 5xx responses. Returns errNotFound on 404.
func (c *baseClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return order.Unavailable(c.service, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		err := c.do(ctx, http.MethodGet, path, query, nil, out)
		var statusErr *httpError
		switch {
		case err == nil:
			return nil
		case errors.Is(err, errNotFound):
			return errNotFound
		case errors.As(err, &statusErr) && statusErr.status < http.StatusInternalServerError:
			// Unexpected 4xx; retrying will not help.
			return order.Unavailable(c.service, err)
		default:
			lastErr = err
			log.Warn().Err(err).Str("service", c.service).Str("path", path).Int("attempt", attempt+1).Msg("client: read failed")
		}
	}
	return order.Unavailable(c.service, lastErr)
}

// postJSON performs a single non-idempotent call: no retries, ever.
func (c *baseClient) postJSON(ctx context.Context, path string, body, out any) error {
	err := c.do(ctx, http.MethodPost, path, nil, body, out)
	var statusErr *httpError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNotFound):
		return errNotFound
	case errors.As(err, &statusErr) && statusErr.status == http.StatusConflict:
		return errConflict
	default:
		return order.Unavailable(c.service, err)
	}
}

var errConflict = errors.New("remote record conflict")

func (c *baseClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &httpError{status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}
