package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return "upstream error" }
func (e *statusErr) HTTPStatusCode() int { return e.code }

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusUnprocessableEntity, false},
		{http.StatusOK, false},
	}
	for _, tc := range cases {
		if got := IsRetryableHTTPStatus(tc.code); got != tc.want {
			t.Errorf("IsRetryableHTTPStatus(%d)=%v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"rate_limited", &statusErr{code: 429}, true},
		{"server_error", &statusErr{code: 503}, true},
		{"bad_request", &statusErr{code: 400}, false},
		{"plain", errors.New("whatever"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryableError(tc.err); got != tc.want {
				t.Fatalf("IsRetryableError=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 3*time.Second {
		t.Fatalf("Retry-After honored: got %v, want 3s", got)
	}
	if got := RetryAfterDuration(resp, time.Second, 2*time.Second); got != 2*time.Second {
		t.Fatalf("Retry-After capped: got %v, want 2s", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 10*time.Second); got != time.Second {
		t.Fatalf("fallback: got %v, want 1s", got)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	base := time.Second
	for i := 0; i < 100; i++ {
		v := JitterSleep(base)
		if v < 800*time.Millisecond || v > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %v", v)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatalf("zero base must yield zero sleep")
	}
}
