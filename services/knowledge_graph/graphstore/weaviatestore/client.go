// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package weaviatestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrWeaviateUnavailable is returned when Weaviate is not reachable.
	ErrWeaviateUnavailable = errors.New("weaviate is not available")

	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open, weaviate requests blocked")
)

// ClientConfig configures the resilient connection to Weaviate.
type ClientConfig struct {
	// URL is the Weaviate server URL (e.g., "http://localhost:8080").
	URL string

	// RetryAttempts is the number of retry attempts for failed requests.
	// Default: 3
	RetryAttempts int

	// RetryBackoff is the initial backoff duration between retries.
	// Default: 100ms
	RetryBackoff time.Duration

	// MaxRetryBackoff caps the exponential backoff.
	// Default: 5s
	MaxRetryBackoff time.Duration

	// RetryJitter adds randomness to backoff (0.0-1.0).
	// Default: 0.25
	RetryJitter float64

	// CircuitThreshold is the number of consecutive failures before the
	// breaker opens. Default: 5
	CircuitThreshold int

	// CircuitCooldown is how long the breaker stays open before allowing
	// a probe request. Default: 30s
	CircuitCooldown time.Duration

	// ReadyTimeout bounds the startup readiness check.
	// Default: 5s
	ReadyTimeout time.Duration

	// Logger for connection events. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultClientConfig returns production defaults.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:              url,
		RetryAttempts:    3,
		RetryBackoff:     100 * time.Millisecond,
		MaxRetryBackoff:  5 * time.Second,
		RetryJitter:      0.25,
		CircuitThreshold: 5,
		CircuitCooldown:  30 * time.Second,
		ReadyTimeout:     5 * time.Second,
		Logger:           slog.Default(),
	}
}

func (c *ClientConfig) applyDefaults() {
	defaults := DefaultClientConfig(c.URL)
	if c.RetryAttempts == 0 {
		c.RetryAttempts = defaults.RetryAttempts
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
	if c.MaxRetryBackoff == 0 {
		c.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if c.RetryJitter == 0 {
		c.RetryJitter = defaults.RetryJitter
	}
	if c.CircuitThreshold == 0 {
		c.CircuitThreshold = defaults.CircuitThreshold
	}
	if c.CircuitCooldown == 0 {
		c.CircuitCooldown = defaults.CircuitCooldown
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = defaults.ReadyTimeout
	}
	if c.Logger == nil {
		c.Logger = defaults.Logger
	}
}

// Conn wraps the Weaviate client with retry, a circuit breaker, and tracing.
//
// The breaker counts consecutive failures; a run of CircuitThreshold
// failures opens it, and after CircuitCooldown the next request is let
// through as a probe.
//
// # Thread Safety
//
// Safe for concurrent use.
type Conn struct {
	client *weaviate.Client
	config ClientConfig
	logger *slog.Logger

	consecutiveFails atomic.Int32
	openedAt         atomic.Int64 // unix seconds; 0 = closed
}

// Dial connects to Weaviate and verifies readiness.
func Dial(ctx context.Context, config ClientConfig) (*Conn, error) {
	config.applyDefaults()
	if config.URL == "" {
		return nil, errors.New("url must not be empty")
	}

	cfg := weaviate.Config{Host: config.URL, Scheme: "http"}
	if after, ok := strings.CutPrefix(config.URL, "https://"); ok {
		cfg.Scheme = "https"
		cfg.Host = after
	} else if after, ok := strings.CutPrefix(config.URL, "http://"); ok {
		cfg.Host = after
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	conn := &Conn{
		client: client,
		config: config,
		logger: config.Logger.With(slog.String("component", "weaviate_conn")),
	}

	readyCtx, cancel := context.WithTimeout(ctx, config.ReadyTimeout)
	defer cancel()
	ready, err := client.Misc().ReadyChecker().Do(readyCtx)
	if err != nil {
		return nil, fmt.Errorf("weaviate not available: %w", err)
	}
	if !ready {
		return nil, ErrWeaviateUnavailable
	}

	conn.logger.Info("weaviate connection established", slog.String("url", config.URL))
	return conn, nil
}

// Client returns the underlying Weaviate client.
func (c *Conn) Client() *weaviate.Client {
	return c.client
}

// Execute runs fn with retry and circuit breaker protection.
func (c *Conn) Execute(ctx context.Context, op string, fn func() error) error {
	ctx, span := otel.Tracer("weaviatestore").Start(ctx, "weaviate."+op,
		trace.WithAttributes(attribute.Int("failures", int(c.consecutiveFails.Load()))))
	defer span.End()

	if openedAt := c.openedAt.Load(); openedAt != 0 {
		if time.Since(time.Unix(openedAt, 0)) < c.config.CircuitCooldown {
			span.SetStatus(codes.Error, "circuit open")
			return ErrCircuitOpen
		}
		// Cooldown expired; this request is the probe.
		c.openedAt.Store(0)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			span.AddEvent("retry", trace.WithAttributes(
				attribute.Int("attempt", attempt),
				attribute.Int64("backoff_ms", backoff.Milliseconds())))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			c.consecutiveFails.Store(0)
			span.SetStatus(codes.Ok, "")
			return nil
		}
		if !isRetryable(lastErr) {
			break
		}
	}

	// Only transport-level failures feed the breaker. An application error
	// means Weaviate answered, so a burst of bad requests must not block a
	// healthy server.
	if isRetryable(lastErr) {
		if fails := c.consecutiveFails.Add(1); int(fails) >= c.config.CircuitThreshold {
			if c.openedAt.CompareAndSwap(0, time.Now().Unix()) {
				c.logger.Warn("circuit breaker opened",
					slog.Int("failures", int(fails)),
					slog.Duration("cooldown", c.config.CircuitCooldown))
			}
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "request failed")
	return lastErr
}

// backoff returns exponential backoff with jitter for the given attempt.
func (c *Conn) backoff(attempt int) time.Duration {
	backoff := min(c.config.RetryBackoff*time.Duration(1<<attempt), c.config.MaxRetryBackoff)

	jitterRange := float64(backoff) * c.config.RetryJitter
	jitter := (rand.Float64()*2 - 1) * jitterRange
	backoff = time.Duration(float64(backoff) + jitter)
	if backoff < 0 {
		backoff = c.config.RetryBackoff
	}
	return backoff
}

// isRetryable reports whether an error is worth retrying. Application
// errors are not; network trouble is.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
