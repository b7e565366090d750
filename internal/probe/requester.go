package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/keysweep/keysweep/internal/config"
	"github.com/keysweep/keysweep/pkg/version"
)

// maxBodyBytes caps how much of a response body is read. API error
// payloads are small; anything beyond this is noise.
const maxBodyBytes = 1 << 20 // 1 MiB

// Attempt holds the raw outcome of a single probe attempt.
type Attempt struct {
	StatusCode int
	Body       string
	Duration   time.Duration
}

// generateRequest is the fixed generateContent probe body: one "hi".
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// Requester sends one generateContent probe per call, authenticating
// each request with the credential under test.
type Requester struct {
	client    *http.Client
	endpoint  string
	payload   []byte
	userAgent string
}

// NewRequester builds the shared HTTP client and the probe payload.
func NewRequester(opts *config.Options) (*Requester, error) {
	base, err := url.Parse(opts.APIBase)
	if err != nil {
		return nil, fmt.Errorf("invalid API base %q: %w", opts.APIBase, err)
	}
	if base.Scheme == "" {
		base.Scheme = "https"
	}
	base.Path = strings.TrimRight(base.Path, "/")
	endpoint := base.String() + "/v1beta/models/" + opts.Model + ":generateContent"

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: "hi"}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding probe payload: %w", err)
	}

	timeout := opts.Timeout
	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &timeoutConn{Conn: conn, timeout: timeout}, nil
		},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   opts.Concurrency,
		MaxIdleConns:          opts.Concurrency,
	}

	// No total client timeout: the flag bounds connect and read
	// operations individually, and a slow but live response must not
	// be cut off mid-verdict.
	client := &http.Client{Transport: transport}

	return &Requester{
		client:    client,
		endpoint:  endpoint,
		payload:   payload,
		userAgent: "keysweep/" + version.Version,
	}, nil
}

// timeoutConn arms a fresh read deadline before every Read so a stalled
// connection fails after the configured timeout instead of hanging for
// the rest of the response.
type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *timeoutConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

// Do sends one probe attempt authenticated as key.
func (r *Requester) Do(ctx context.Context, key string) (*Attempt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(r.payload))
	if err != nil {
		return nil, &requestError{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)
	req.Header.Set("User-Agent", r.userAgent)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Attempt{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Duration:   time.Since(start),
	}, nil
}
