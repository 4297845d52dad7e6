// Package scanapi implements the Scanner port against the external
// guardrails analysis service.
package scanapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
	"github.com/ericfisherdev/guardhook/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Scanner = (*Client)(nil)

// candidatePaths are the scan endpoints tried in order within one attempt.
// The backend mounts its router under /api/v1/scan with a trailing-slash
// handler; older deployments exposed /scan at the root. Falling back across
// these within an attempt keeps a path misconfiguration from burning the
// whole retry budget.
var candidatePaths = []string{"/api/v1/scan/", "/api/v1/scan", "/scan"}

// probeTimeout bounds the pre-flight health check. The probe is advisory: a
// cold-starting service fails it and still gets the real request.
const probeTimeout = 5 * time.Second

// requestError classifies a failed scan call by status code so the retry
// loop can distinguish terminal client errors from transient server ones.
type requestError struct {
	status int
	body   string
}

func (e *requestError) Error() string {
	return fmt.Sprintf("scan service returned %d: %s", e.status, e.body)
}

func (e *requestError) terminal() bool {
	return e.status >= 400 && e.status < 500
}

// Client implements driven.Scanner over HTTP with pre-flight health probing,
// bounded exponential-backoff retries, endpoint fallback, and the
// graceful-degradation contract: Scan always returns a usable ScanResult.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int

	backoffInitial time.Duration
	backoffMax     time.Duration
}

// NewClient creates a scan client. timeout bounds each scan request end to
// end (generously, the backend can legitimately take minutes); maxAttempts
// is the total attempt budget including the first try.
func NewClient(baseURL string, timeout time.Duration, maxAttempts int) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		maxAttempts:    maxAttempts,
		backoffInitial: time.Second,
		backoffMax:     10 * time.Second,
	}
}

// NewClientWithBackoff creates a scan client with explicit backoff intervals.
// This constructor is intended for testing, where waiting on real backoff
// schedules would slow the suite.
func NewClientWithBackoff(baseURL string, timeout time.Duration, maxAttempts int, initial, max time.Duration) *Client {
	c := NewClient(baseURL, timeout, maxAttempts)
	c.backoffInitial = initial
	c.backoffMax = max
	return c
}

// Scan submits the request to the analysis backend. On exhaustion of all
// retries and fallback paths, or on a terminal rejection, it returns a
// degraded result instead of an error: empty violations, advisory
// enforcement, mergeable, with a human-readable cause.
func (c *Client) Scan(ctx context.Context, req model.ScanRequest) model.ScanResult {
	c.probeHealth(ctx)

	payload, err := json.Marshal(req)
	if err != nil {
		// Requests are built from our own model; this indicates a bug, but
		// the degradation contract still applies.
		slog.Error("scan request not serializable", "repo", req.Repository, "error", err)
		return model.DegradedResult(req.Repository, fmt.Sprintf("request serialization failed: %v", err))
	}

	var result model.ScanResult

	operation := func() error {
		return c.attempt(ctx, payload, &result)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.backoffInitial
	expBackoff.MaxInterval = c.backoffMax
	expBackoff.MaxElapsedTime = 0 // Bounded by attempt count, not wall clock.

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(c.maxAttempts-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		slog.Error("scan failed after all attempts",
			"repo", req.Repository,
			"attempts", c.maxAttempts,
			"error", err,
		)
		return model.DegradedResult(req.Repository, err.Error())
	}

	if result.Repository == "" {
		result.Repository = req.Repository
	}
	return result
}

// attempt performs one retry cycle: the candidate paths are tried in order,
// falling through only on 404/405 (wrong mount point). A 5xx or transport
// error ends the cycle as retryable; any other 4xx is terminal because the
// request itself is invalid and a retry would just repeat it.
func (c *Client) attempt(ctx context.Context, payload []byte, result *model.ScanResult) error {
	var lastErr error

	for _, path := range candidatePaths {
		reqErr := c.post(ctx, c.baseURL+path, payload, result)
		if reqErr == nil {
			return nil
		}

		var rerr *requestError
		switch {
		case errors.As(reqErr, &rerr) && (rerr.status == http.StatusNotFound || rerr.status == http.StatusMethodNotAllowed):
			// Wrong path; the next candidate may be the right mount.
			lastErr = reqErr
			continue
		case errors.As(reqErr, &rerr) && rerr.terminal():
			return backoff.Permanent(reqErr)
		default:
			// Transport error or 5xx. The service is unhealthy; other paths
			// on the same host will not fare better this cycle.
			return reqErr
		}
	}

	return lastErr
}

// post performs a single POST and decodes a successful response in place.
func (c *Client) post(ctx context.Context, url string, payload []byte, result *model.ScanResult) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scan service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &requestError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding scan response: %w", err)
	}
	return nil
}

// probeHealth performs the advisory pre-flight check against /health.
func (c *Client) probeHealth(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("scan service health probe failed, attempting scan anyway", "error", err)
		return
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("scan service health probe unhealthy, attempting scan anyway", "status", resp.StatusCode)
	}
}
