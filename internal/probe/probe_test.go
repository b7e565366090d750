package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keysweep/keysweep/internal/config"
)

func testRequester(t *testing.T, serverURL string, timeout time.Duration) *Requester {
	t.Helper()
	req, err := NewRequester(&config.Options{
		APIBase:     serverURL,
		Model:       "test-model",
		Timeout:     timeout,
		Concurrency: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	return req
}

// testProber shrinks the backoff so retry tests finish quickly.
func testProber(t *testing.T, serverURL string) *Prober {
	t.Helper()
	p := NewProber(testRequester(t, serverURL, 5*time.Second))
	p.initialBackoff = 30 * time.Millisecond
	return p
}

func TestRequesterSendsProbeRequest(t *testing.T) {
	var gotKey, gotPath, gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		gotMethod = r.Method
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(200)
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	req := testRequester(t, srv.URL, 5*time.Second)
	att, err := req.Do(context.Background(), "secret-key")
	if err != nil {
		t.Fatal(err)
	}

	if att.StatusCode != 200 {
		t.Errorf("status = %d, want 200", att.StatusCode)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotKey != "secret-key" {
		t.Errorf("x-goog-api-key = %q, want secret-key", gotKey)
	}
	if want := "/v1beta/models/test-model:generateContent"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if want := `{"contents":[{"parts":[{"text":"hi"}]}]}`; gotBody != want {
		t.Errorf("body = %q, want %q", gotBody, want)
	}
}

func TestProbeTerminalStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantCat Category
	}{
		{"valid on 200", 200, "{}", CategoryValid},
		{"invalid on 401", 401, "key rejected", CategoryInvalid},
		{"invalid on 403", 403, "forbidden", CategoryInvalid},
		{"model not found on 404", 404, "no such model", CategoryModelNotFound},
		{"error on 500", 500, "boom", CategoryError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			res, err := testProber(t, srv.URL).Probe(context.Background(), "k1")
			if err != nil {
				t.Fatal(err)
			}

			if res.Category != tt.wantCat {
				t.Errorf("category = %q, want %q", res.Category, tt.wantCat)
			}
			if res.HTTPStatus != tt.status {
				t.Errorf("http status = %d, want %d", res.HTTPStatus, tt.status)
			}
			if res.Key != "k1" {
				t.Errorf("key = %q, want k1", res.Key)
			}
			// Terminal statuses never retry.
			if hits.Load() != 1 {
				t.Errorf("attempts = %d, want 1", hits.Load())
			}
		})
	}
}

func TestProbeRetriesRateLimitUntilExhausted(t *testing.T) {
	var mu sync.Mutex
	var attemptTimes []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attemptTimes = append(attemptTimes, time.Now())
		n := len(attemptTimes)
		mu.Unlock()
		w.WriteHeader(429)
		fmt.Fprintf(w, "quota exceeded %d", n)
	}))
	defer srv.Close()

	p := testProber(t, srv.URL)
	res, err := p.Probe(context.Background(), "k1")
	if err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attemptTimes) != MaxAttempts {
		t.Fatalf("attempts = %d, want %d", len(attemptTimes), MaxAttempts)
	}
	if res.Category != CategoryError {
		t.Errorf("category = %q, want error", res.Category)
	}
	if res.HTTPStatus != 429 {
		t.Errorf("http status = %d, want 429", res.HTTPStatus)
	}
	if want := fmt.Sprintf("quota exceeded %d", MaxAttempts); res.Detail != want {
		t.Errorf("detail = %q, want last body %q", res.Detail, want)
	}

	// Backoff doubles: the second gap must be at least twice the base.
	gap1 := attemptTimes[1].Sub(attemptTimes[0])
	gap2 := attemptTimes[2].Sub(attemptTimes[1])
	if gap1 < p.initialBackoff {
		t.Errorf("first backoff = %s, want >= %s", gap1, p.initialBackoff)
	}
	if gap2 < 2*p.initialBackoff {
		t.Errorf("second backoff = %s, want >= %s", gap2, 2*p.initialBackoff)
	}
}

func TestProbeRateLimitThenSuccess(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(429)
			fmt.Fprint(w, "slow down")
			return
		}
		w.WriteHeader(200)
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	res, err := testProber(t, srv.URL).Probe(context.Background(), "k1")
	if err != nil {
		t.Fatal(err)
	}

	if hits.Load() != 2 {
		t.Errorf("attempts = %d, want 2", hits.Load())
	}
	if res.Category != CategoryValid {
		t.Errorf("category = %q, want valid", res.Category)
	}
	if res.Detail != "OK" {
		t.Errorf("detail = %q, want OK", res.Detail)
	}
}

func TestProbeTimeoutExhaustsRetries(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release // stall until the test finishes
	}))
	defer srv.Close()
	defer close(release)

	p := NewProber(testRequester(t, srv.URL, 50*time.Millisecond))
	p.initialBackoff = 10 * time.Millisecond

	res, err := p.Probe(context.Background(), "k1")
	if err != nil {
		t.Fatal(err)
	}

	if hits.Load() != MaxAttempts {
		t.Errorf("attempts = %d, want %d", hits.Load(), MaxAttempts)
	}
	if res.Category != CategoryError {
		t.Errorf("category = %q, want error", res.Category)
	}
	if res.HTTPStatus != StatusNoResponse {
		t.Errorf("http status = %d, want %d", res.HTTPStatus, StatusNoResponse)
	}
	if res.Detail != "Timeout" {
		t.Errorf("detail = %q, want Timeout", res.Detail)
	}
	if res.ElapsedSeconds <= 0 {
		t.Errorf("elapsed = %v, want > 0", res.ElapsedSeconds)
	}
}

func TestProbeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res, err := testProber(t, url).Probe(context.Background(), "k1")
	if err != nil {
		t.Fatal(err)
	}

	if res.Category != CategoryError {
		t.Errorf("category = %q, want error", res.Category)
	}
	if res.HTTPStatus != StatusNoResponse {
		t.Errorf("http status = %d, want %d", res.HTTPStatus, StatusNoResponse)
	}
	if res.Detail == "" || res.Detail == "Timeout" {
		t.Errorf("detail = %q, want transport error summary", res.Detail)
	}
	if !strings.Contains(res.Detail, "refused") {
		t.Errorf("detail = %q, want connection refused summary", res.Detail)
	}
}

func TestProbeUnexpectedFailureNoRetry(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	// Control character in the model makes request construction fail
	// before anything reaches the network.
	req, err := NewRequester(&config.Options{
		APIBase:     srv.URL,
		Model:       "bad\x00model",
		Timeout:     time.Second,
		Concurrency: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	p := NewProber(req)
	p.initialBackoff = 10 * time.Millisecond

	res, err := p.Probe(context.Background(), "k1")
	if err != nil {
		t.Fatal(err)
	}

	if hits.Load() != 0 {
		t.Errorf("server hits = %d, want 0", hits.Load())
	}
	if res.Category != CategoryError {
		t.Errorf("category = %q, want error", res.Category)
	}
	if res.HTTPStatus != StatusUnexpected {
		t.Errorf("http status = %d, want %d", res.HTTPStatus, StatusUnexpected)
	}
	if !strings.HasPrefix(res.Detail, "Unexpected: ") {
		t.Errorf("detail = %q, want Unexpected: prefix", res.Detail)
	}
}

func TestProbeCanceledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		fmt.Fprint(w, "slow down")
	}))
	defer srv.Close()

	p := NewProber(testRequester(t, srv.URL, 5*time.Second))
	p.initialBackoff = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := p.Probe(ctx, "k1")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("probe took %s after cancel, want prompt return", elapsed)
	}
}
