// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the network stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay is the base duration for exponential backoff on HTTP 429
// responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// backoff returns the wait before retry attempt n: base, 2x base, 4x base...
func backoff(attempt int) time.Duration {
	return RetryBaseDelay << attempt
}

// DoWithRetry executes req and retries on HTTP 429 (Too Many Requests)
// with exponential backoff, doubling from RetryBaseDelay each attempt.
// A maxRetries of 0 uses the default (5). The last 429 response is
// returned after retries are exhausted so the caller can inspect it, and
// a context cancellation during a backoff wait returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		// Drain and close before sleeping so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
}
