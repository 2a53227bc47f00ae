// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
)

const (
	// maxErrorBodySize limits how much of an error response is read for diagnostics.
	maxErrorBodySize = 64 * 1024 // 64KB

	// maxResponseBodySize caps a successful response body.
	maxResponseBodySize = 10 * 1024 * 1024 // 10MB

	monthlyAttendancePath = "/personnel/monthly-attendance"

	// ErrorTypeNoData is the backend's discriminator for "nothing recorded yet".
	ErrorTypeNoData = "NO_DATA_AVAILABLE"
)

// Fetcher queries the durable backend for a person's month.
// FetchMonthly returns (nil, nil) when the backend has no data.
type Fetcher interface {
	FetchMonthly(ctx context.Context, role, personID string, month int) (*models.CompleteMonthlyRecord, error)
}

// readBodyForError reads at most 64KB of r for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// envelope is the backend's response wrapper.
type envelope struct {
	Success   bool                          `json:"success"`
	Data      *models.CompleteMonthlyRecord `json:"data"`
	Message   string                        `json:"message"`
	ErrorType string                        `json:"errorType"`
}

// Client talks to the durable backend over HTTP.
//
// Each call carries its own deadline (backend.timeout). HTTP 429 responses
// are retried with exponential backoff (1s, 2s, 4s...) honoring Retry-After;
// nothing else is retried.
type Client struct {
	baseURL        string
	client         *http.Client
	timeout        time.Duration
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a backend client from configuration.
func NewClient(cfg *config.BackendConfig) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		client:         &http.Client{},
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: 1 * time.Second,
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// FetchMonthly implements Fetcher.
func (c *Client) FetchMonthly(ctx context.Context, role, personID string, month int) (*models.CompleteMonthlyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("role", role)
	params.Set("personId", personID)
	params.Set("month", strconv.Itoa(month))
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, monthlyAttendancePath, params.Encode())

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		metrics.RecordBackendRequest("error", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	record, err := decodeMonthly(resp)
	switch {
	case err != nil:
		metrics.RecordBackendStatus(resp.StatusCode, time.Since(start))
	case record == nil:
		metrics.RecordBackendRequest("absent", time.Since(start))
	default:
		metrics.RecordBackendRequest("ok", time.Since(start))
	}
	return record, err
}

// decodeMonthly maps a backend response onto (record, nil), (nil, nil) for
// "no data", or a *NetworkError.
func decodeMonthly(resp *http.Response) (*models.CompleteMonthlyRecord, error) {
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.ErrorType == ErrorTypeNoData {
			return nil, nil
		}
		return nil, netErr("fetch_monthly", resp.StatusCode,
			fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))))
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&env); err != nil {
		return nil, netErr("decode", resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	if !env.Success {
		if env.ErrorType == ErrorTypeNoData {
			return nil, nil
		}
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, netErr("fetch_monthly", resp.StatusCode, fmt.Errorf("backend error %s: %s", env.ErrorType, msg))
	}
	return env.Data, nil
}

// doRequestWithRateLimit performs a GET, waiting on the outbound limiter and
// retrying HTTP 429 with exponential backoff.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, netErr("rate_limit", 0, contextOr(ctx, err))
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, netErr("request", 0, contextOr(ctx, err))
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Rate limited (HTTP 429): close body and retry with backoff.
		_ = resp.Body.Close()
		if attempt >= c.maxRetries {
			return nil, netErr("request", http.StatusTooManyRequests,
				fmt.Errorf("rate limit exceeded after %d retries", c.maxRetries))
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}
		logging.Warn().Dur("retry_delay", delay).Int("attempt", attempt+1).Int("max_retries", c.maxRetries).
			Msg("Backend rate limited (HTTP 429), retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, netErr("request", 0, ctx.Err())
		}
	}
}

// contextOr prefers the context's error so callers can match on
// context.DeadlineExceeded and context.Canceled.
func contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}
