package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// Client wraps the Vault API client used by the calendar store.
type Client struct {
	client *api.Client
}

// Config holds Vault client configuration.
type Config struct {
	Address string
	Token   string
	Timeout time.Duration
}

const (
	// Retry configuration for Vault requests
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 2 * time.Second
	backoffFactor  = 2.0
)

// NewClient creates a new Vault client wrapper.
func NewClient(config *Config) (*Client, error) {
	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = config.Address
	if config.Timeout > 0 {
		vaultConfig.Timeout = config.Timeout
	}
	// retries happen in retryWithBackoff
	vaultConfig.MaxRetries = 0

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Token != "" {
		client.SetToken(config.Token)
	}

	return &Client{
		client: client,
	}, nil
}

// SetToken sets the token for the client. Safe to call while requests are in flight.
func (c *Client) SetToken(token string) {
	c.client.SetToken(token)
}

// retryWithBackoff executes an operation with exponential backoff retry logic.
// It retries transient errors up to maxRetries times with exponentially increasing delays.
func retryWithBackoff[T any](ctx context.Context, operation string, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		if !isRetryableError(lastErr) {
			return result, lastErr
		}

		// Don't sleep after the last attempt
		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(float64(initialBackoff) * math.Pow(backoffFactor, float64(attempt)))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		slog.WarnContext(ctx, "Vault operation failed, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"backoff", backoff,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return result, fmt.Errorf("vault operation %s failed after %d attempts: %w", operation, maxRetries+1, lastErr)
}

var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"no such host",
	"eof",
}

// isRetryableError retries 5xx, 429 and network errors, never auth or permission errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		statusCode := respErr.StatusCode
		return statusCode == 429 || (statusCode >= 500 && statusCode < 600)
	}

	// The Vault client wraps network errors in various ways
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
