// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

// sequenceServer answers with statuses[i] on call i, repeating the last
// status once the sequence is exhausted.
func sequenceServer(t *testing.T, statuses []int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		i := int(n) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		w.WriteHeader(statuses[i])
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{
			name:       "immediate success",
			statuses:   []int{http.StatusOK},
			maxRetries: 5,
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "two 429s then success",
			statuses:   []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK},
			maxRetries: 5,
			wantStatus: http.StatusOK,
			wantCalls:  3,
		},
		{
			// 1 initial + 3 retries, last 429 returned to the caller.
			name:       "exhausts retries",
			statuses:   []int{http.StatusTooManyRequests},
			maxRetries: 3,
			wantStatus: http.StatusTooManyRequests,
			wantCalls:  4,
		},
		{
			// maxRetries 0 falls back to the default of 5.
			name:       "default max retries",
			statuses:   []int{http.StatusTooManyRequests},
			maxRetries: 0,
			wantStatus: http.StatusTooManyRequests,
			wantCalls:  6,
		},
		{
			// Only 429 triggers a retry; other errors pass through.
			name:       "500 passes through",
			statuses:   []int{http.StatusInternalServerError},
			maxRetries: 5,
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := sequenceServer(t, tt.statuses)

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	ts, _ := sequenceServer(t, []int{http.StatusTooManyRequests})

	// A longer base delay so the context cancels during the backoff wait.
	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
