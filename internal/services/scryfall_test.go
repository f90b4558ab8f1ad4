package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// newTestClient points a client at a test server with a configurable
// pacing interval so most tests don't pay the production 125ms gate.
func newTestClient(server *httptest.Server, interval time.Duration) *ScryfallClient {
	return &ScryfallClient{
		client:         server.Client(),
		downloadClient: server.Client(),
		limiter:        rate.NewLimiter(rate.Every(interval), 1),
		baseURL:        server.URL,
		userAgent:      "manabase-builder/test",
	}
}

func TestFetchJSONPacing(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte(`{"id":"x","name":"Forest"}`))
	}))
	defer server.Close()

	client := newTestClient(server, minRequestInterval)

	start := time.Now()
	for i := 0; i < 10; i++ {
		var v map[string]interface{}
		if err := client.FetchJSON(context.Background(), server.URL+"/cards/x", &v); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	elapsed := time.Since(start)

	// 10 requests against a burst-1 limiter need at least 9 full intervals
	if minElapsed := 9 * minRequestInterval; elapsed < minElapsed {
		t.Errorf("10 requests completed in %v, expected at least %v", elapsed, minElapsed)
	}
	if got := atomic.LoadInt32(&requests); got != 10 {
		t.Errorf("Expected 10 requests, got %d", got)
	}
}

func TestFetchJSONRetriesOn429(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n <= 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id":"x","name":"Forest"}`))
	}))
	defer server.Close()

	client := newTestClient(server, time.Millisecond)

	start := time.Now()
	var v map[string]interface{}
	if err := client.FetchJSON(context.Background(), server.URL+"/cards/x", &v); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}

	if got := atomic.LoadInt32(&requests); got != 3 {
		t.Errorf("Expected 3 requests (2 rate limited + 1 success), got %d", got)
	}
	// Two Retry-After: 1 waits must have been honored
	if elapsed := time.Since(start); elapsed < 2*time.Second {
		t.Errorf("Expected at least 2s of Retry-After backoff, waited only %v", elapsed)
	}
}

func TestFetchJSONExhaustsRetries(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server, time.Millisecond)

	var v map[string]interface{}
	err := client.FetchJSON(context.Background(), server.URL+"/cards/x", &v)
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected UpstreamError, got %T: %v", err, err)
	}
	if ue.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 on error, got %d", ue.StatusCode)
	}
	if got := atomic.LoadInt32(&requests); got != int32(maxRetries)+1 {
		t.Errorf("Expected %d attempts, got %d", maxRetries+1, got)
	}
}

func TestFetchJSONNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server, time.Millisecond)

	_, err := client.NamedFuzzy(context.Background(), "No Such Card")
	if err == nil {
		t.Fatal("Expected error for 404")
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
	if nf.Name != "No Such Card" {
		t.Errorf("Expected NotFoundError to carry the card name, got %q", nf.Name)
	}
}

func TestFetchJSONServerErrorFailsFast(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server, time.Millisecond)

	var v map[string]interface{}
	err := client.FetchJSON(context.Background(), server.URL+"/cards/x", &v)

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected UpstreamError, got %T: %v", err, err)
	}
	if ue.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", ue.StatusCode)
	}
	// No retries on non-429 failures
	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("Expected exactly 1 attempt on 500, got %d", got)
	}
}

func TestFetchJSONContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var v map[string]interface{}
	start := time.Now()
	err := client.FetchJSON(ctx, server.URL+"/cards/x", &v)
	if err == nil {
		t.Fatal("Expected error when context expires during backoff")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected prompt cancellation, waited %v", elapsed)
	}
}

func TestRetryAfterDelay(t *testing.T) {
	tests := []struct {
		header   string
		expected time.Duration
	}{
		{"3", 3 * time.Second},
		{"1", time.Second},
		{"", defaultRetryAfter},
		{"soon", defaultRetryAfter},
		{"0", defaultRetryAfter},
		{"-1", defaultRetryAfter},
	}

	for _, tt := range tests {
		resp := &http.Response{Header: http.Header{}}
		if tt.header != "" {
			resp.Header.Set("Retry-After", tt.header)
		}
		if got := retryAfterDelay(resp); got != tt.expected {
			t.Errorf("retryAfterDelay(%q) = %v, expected %v", tt.header, got, tt.expected)
		}
	}
}
