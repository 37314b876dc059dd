// Package retry runs remote calls with bounded retries for transient failures.
//
// Failures are classified once at the stage boundary: transient errors
// (rate limits, 5xx, network timeouts) are retried with backoff, permanent
// errors (schema violations, missing credentials, cancelled contexts) fail
// immediately.
package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"vlogger/pkg/schema"
)

// Class is the retry classification of an error.
type Class int

const (
	Unknown Class = iota
	Transient
	Permanent
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

type classified struct {
	class Class
	err   error
}

func (c *classified) Error() string { return c.err.Error() }
func (c *classified) Unwrap() error { return c.err }

// MarkTransient marks err as safe to retry.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &classified{class: Transient, err: err}
}

// MarkPermanent marks err as never retryable.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &classified{class: Permanent, err: err}
}

// Classify inspects err and its chain.
func Classify(err error) Class {
	if err == nil {
		return Unknown
	}
	var c *classified
	if errors.As(err, &c) {
		return c.class
	}
	if errors.Is(err, context.Canceled) || schema.IsValidation(err) {
		return Permanent
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Transient
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return classifyStatus(gErr.Code)
	}
	var oErr *openai.Error
	if errors.As(err, &oErr) {
		return classifyStatus(oErr.StatusCode)
	}
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return Transient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Transient
	}
	return Unknown
}

func classifyStatus(code int) Class {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return Transient
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusBadRequest, code == http.StatusNotFound:
		return Permanent
	default:
		return Unknown
	}
}

// IsPermanent reports whether err must not be retried at any level.
func IsPermanent(err error) bool { return Classify(err) == Permanent }

// Policy bounds retries of a single stage.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy retries transient failures twice with exponential backoff.
var DefaultPolicy = Policy{Attempts: 3, Delay: 2 * time.Second, MaxDelay: 30 * time.Second}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a non-transient error, or the policy is exhausted.
func Do[T any](ctx context.Context, p Policy, stage string, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	delay := p.Delay

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil || Classify(err) != Transient || attempt == attempts {
			break
		}
		log.Warn("transient failure, retrying", "stage", stage, "attempt", attempt, "delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return zero, lastErr
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return zero, lastErr
}
