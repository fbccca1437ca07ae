package managementapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/observability"
	"go.uber.org/zap"
)

// Client is the concrete REST implementation of ManagementApi. Every call
// goes through withRetry, which applies the §5 retry policy: up to 3
// attempts, exponential backoff from a 1s base with jitter, retrying only
// transport failures and the platform's rateExceeded (10000) error code.
// This mirrors the teacher's docker.Client.withRetry, applied to HTTP
// instead of the Docker SDK.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *observability.Logger
	maxRetries int
}

// NewClient creates a ManagementApi client for one environment.
func NewClient(baseURL, environmentID, apiKey string, logger *observability.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    fmt.Sprintf("%s/v2/projects/%s", baseURL, environmentID),
		apiKey:     apiKey,
		logger:     logger,
		maxRetries: 3,
	}
}

var _ ManagementApi = (*Client)(nil)

func (c *Client) do(ctx context.Context, operation, method, path string, body interface{}, out interface{}) error {
	return c.withRetry(ctx, operation, func() error {
		return c.doOnce(ctx, method, path, body, out)
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return kerrors.ErrNotFound
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		if errResp.ErrorCode == RateExceededCode {
			return fmt.Errorf("%s: %w", errResp.Message, kerrors.ErrRateLimited)
		}
		if errResp.ErrorCode == BadPublishCode {
			return fmt.Errorf("%s: %w", errResp.Message, kerrors.ErrBadPublish)
		}
		return fmt.Errorf("management api error %d: %s", resp.StatusCode, errResp.Message)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// withRetry implements §5's retry policy. Errors carrying no platform
// error code (transport-level failures) or exactly the rateExceeded code
// are retried; everything else, including 404 (handled by the caller as a
// lookup outcome, not a failure), surfaces immediately.
func (c *Client) withRetry(ctx context.Context, operation string, fn func() error) error {
	const base = time.Second
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := base << uint(attempt-1)
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-ctx.Done():
				observability.RetryAttempts.WithLabelValues(operation, "cancelled").Inc()
				return fmt.Errorf("%s cancelled during retry: %w", operation, ctx.Err())
			case <-time.After(backoff + jitter):
			}
			c.logger.Info("retrying management api call",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
			)
		}

		start := time.Now()
		err := fn()
		observability.APICallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

		if err == nil {
			observability.APICallsTotal.WithLabelValues(operation, "success").Inc()
			if attempt > 0 {
				observability.RetryAttempts.WithLabelValues(operation, "success_after_retry").Inc()
			}
			return nil
		}

		if kerrors.IsNotFound(err) {
			observability.APICallsTotal.WithLabelValues(operation, "not_found").Inc()
			return err
		}

		lastErr = err
		if !isRetryable(err) {
			observability.APICallsTotal.WithLabelValues(operation, "error").Inc()
			observability.RetryAttempts.WithLabelValues(operation, "permanent_failure").Inc()
			return err
		}
		observability.RetryAttempts.WithLabelValues(operation, "retry").Inc()
	}

	observability.APICallsTotal.WithLabelValues(operation, "exhausted").Inc()
	observability.RetryAttempts.WithLabelValues(operation, "exhausted").Inc()
	return fmt.Errorf("%s failed after %d attempts: %w", operation, c.maxRetries, lastErr)
}

func isRetryable(err error) bool {
	return kerrors.IsRateLimited(err) || kerrors.IsTransient(err)
}
