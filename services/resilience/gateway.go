// File: services/resilience/gateway.go
package resilience

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"agendia/utils"

	"go.uber.org/zap"
)

// Error kinds reported by the gateway. Callers match on these instead of
// inspecting error types.
const (
	ErrKindTimeout         = "timeout"
	ErrKindConnection      = "connection_error"
	ErrKindCircuitOpen     = "circuit_open"
	ErrKindAPI             = "api_error"
	ErrKindInvalidDatetime = "invalid_datetime"
	ErrKindUnknown         = "unknown_error"
)

// HTTPKind builds the error kind for a well-formed HTTP error response.
func HTTPKind(status int) string {
	return fmt.Sprintf("http_%d", status)
}

// CallError is a tagged upstream-call failure.
type CallError struct {
	Kind   string
	Status int
	Err    error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind
}

func (e *CallError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transport-level. Well-formed HTTP
// error responses are deterministic rejections and never retried.
func (e *CallError) Retryable() bool {
	return e.Kind == ErrKindTimeout || e.Kind == ErrKindConnection
}

// Gateway wraps upstream JSON calls with bounded retry, exponential backoff
// and circuit-breaker accounting for reads, plus a strictly single-attempt
// path for writes.
type Gateway struct {
	Client      *http.Client
	Attempts    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Breaker     *Breaker
}

// NewGateway builds a gateway with the default backoff ladder (1s, 2s, 4s).
func NewGateway(timeout time.Duration, attempts int, breaker *Breaker) *Gateway {
	if attempts <= 0 {
		attempts = 3
	}
	return &Gateway{
		Client:      &http.Client{Timeout: timeout},
		Attempts:    attempts,
		BaseBackoff: time.Second,
		MaxBackoff:  4 * time.Second,
		Breaker:     breaker,
	}
}

// PostJSON performs an idempotent read call. Transport failures are retried
// up to g.Attempts times with exponential backoff; HTTP error responses are
// surfaced immediately. Exhausting retries records a failure against
// circuitKey; a successful call records a success.
func (g *Gateway) PostJSON(ctx context.Context, url string, payload any, circuitKey string) ([]byte, *CallError) {
	logger := utils.GetLogger()

	if g.Breaker != nil && circuitKey != "" && g.Breaker.IsOpen(circuitKey) {
		return nil, &CallError{Kind: ErrKindCircuitOpen, Err: errors.New("circuit open for " + circuitKey)}
	}

	backoff := g.BaseBackoff
	var last *CallError
	for attempt := 1; attempt <= g.Attempts; attempt++ {
		body, callErr := g.doPost(ctx, url, payload)
		if callErr == nil {
			if g.Breaker != nil && circuitKey != "" {
				g.Breaker.RecordSuccess(circuitKey)
			}
			return body, nil
		}
		if !callErr.Retryable() {
			return nil, callErr
		}
		last = callErr
		if attempt == g.Attempts {
			break
		}
		logger.Warn("Gateway: transient failure, backing off",
			zap.String("url", url), zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff), zap.Error(callErr.Err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, &CallError{Kind: ErrKindTimeout, Err: ctx.Err()}
		}
		backoff *= 2
		if backoff > g.MaxBackoff {
			backoff = g.MaxBackoff
		}
	}

	if g.Breaker != nil && circuitKey != "" {
		g.Breaker.RecordFailure(circuitKey)
	}
	return nil, last
}

// PostOnce performs a non-idempotent write call with exactly one attempt.
// Re-sending a write whose response was lost risks a duplicate real-world
// event, so failures are surfaced to the caller instead of retried.
func (g *Gateway) PostOnce(ctx context.Context, url string, payload any) ([]byte, *CallError) {
	return g.doPost(ctx, url, payload)
}

func (g *Gateway) doPost(ctx context.Context, url string, payload any) ([]byte, *CallError) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &CallError{Kind: ErrKindUnknown, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, &CallError{Kind: ErrKindUnknown, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode >= 400 {
		return nil, &CallError{
			Kind:   HTTPKind(resp.StatusCode),
			Status: resp.StatusCode,
			Err:    fmt.Errorf("upstream returned status %d", resp.StatusCode),
		}
	}
	return body, nil
}

func classifyTransport(err error) *CallError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Kind: ErrKindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CallError{Kind: ErrKindTimeout, Err: err}
	}
	return &CallError{Kind: ErrKindConnection, Err: err}
}
