package probe

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Retry policy for transient attempt outcomes (HTTP 429 and transport
// failures). MaxAttempts counts every attempt including the first.
const (
	MaxAttempts    = 3
	InitialBackoff = time.Second
	BackoffFactor  = 2.0
)

// Prober runs the full bounded-retry loop for single credentials.
type Prober struct {
	requester *Requester

	maxAttempts    int
	initialBackoff time.Duration
	backoffFactor  float64
}

// NewProber creates a Prober with the default retry policy.
func NewProber(requester *Requester) *Prober {
	return &Prober{
		requester:      requester,
		maxAttempts:    MaxAttempts,
		initialBackoff: InitialBackoff,
		backoffFactor:  BackoffFactor,
	}
}

// Probe tests one credential, retrying rate limits and transport
// failures with exponential backoff. Every failure mode is absorbed
// into the Result; the returned error is non-nil only when ctx is
// canceled before a verdict, in which case the Result is meaningless.
func (p *Prober) Probe(ctx context.Context, key string) (Result, error) {
	start := time.Now()
	backoff := p.initialBackoff

	finish := func(r Result) (Result, error) {
		r.Key = key
		r.ElapsedSeconds = roundSeconds(time.Since(start))
		return r, nil
	}

	for attempt := 1; ; attempt++ {
		att, err := p.requester.Do(ctx, key)

		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			if isUnexpected(err) {
				return finish(Result{
					Category:   CategoryError,
					HTTPStatus: StatusUnexpected,
					Detail:     "Unexpected: " + truncate(err.Error(), maxErrDetail),
				})
			}
			if attempt == p.maxAttempts {
				detail := truncate(err.Error(), maxErrDetail)
				if isTimeout(err) {
					detail = "Timeout"
				}
				return finish(Result{
					Category:   CategoryError,
					HTTPStatus: StatusNoResponse,
					Detail:     detail,
				})
			}
			slog.Debug("probe attempt failed, backing off",
				"key", Abbrev(key), "attempt", attempt, "err", err, "backoff", backoff)
		} else if !retryableStatus(att.StatusCode) || attempt == p.maxAttempts {
			category, detail := Classify(att.StatusCode, att.Body)
			return finish(Result{
				Category:   category,
				HTTPStatus: att.StatusCode,
				Detail:     detail,
			})
		} else {
			slog.Debug("probe attempt rate limited, backing off",
				"key", Abbrev(key), "attempt", attempt, "took", att.Duration, "backoff", backoff)
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		backoff = time.Duration(float64(backoff) * p.backoffFactor)
	}
}

// roundSeconds converts d to seconds at two-decimal precision.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
