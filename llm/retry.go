package llm

import (
	"context"
	"fmt"
	"time"
)

const initialBackoff = time.Second

// RetryClient wraps a Client with a per-call deadline and exponential
// backoff retry. Callers above this layer see a single success or a
// single failure.
type RetryClient struct {
	inner      Client
	maxRetries int
	timeout    time.Duration
}

// NewRetryClient wraps client with the given retry and timeout policy.
// maxRetries counts total attempts and must be at least 1.
func NewRetryClient(client Client, maxRetries int, timeout time.Duration) *RetryClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      client,
		maxRetries: maxRetries,
		timeout:    timeout,
	}
}

// Generate calls the wrapped client, retrying transient failures with
// exponential backoff
func (c *RetryClient) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		callCtx := ctx
		cancel := func() {}
		if c.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}

		out, err := c.inner.Generate(callCtx, messages, opts)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err

		// Give up immediately when the parent context is done.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", c.maxRetries, lastErr)
}
