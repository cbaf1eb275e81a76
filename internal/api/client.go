// Package api is the HTTP client for the remote ProjectFlow REST backend.
// All responses arrive in a {success, data, message} envelope; anything
// without success=true is a failure. The client attaches the session token
// to every authenticated call through an injected TokenSource rather than
// any process-global default.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/observability/metrics"
	"github.com/yourorg/projectflow/internal/reliability/circuitbreaker"
	"github.com/yourorg/projectflow/internal/reliability/retry"
)

// maxResponseSize bounds response bodies so a misbehaving backend cannot
// exhaust memory.
const maxResponseSize = 8 * 1024 * 1024

// TokenSource supplies the current session token. An empty string means
// no authenticated session. The session store implements this.
type TokenSource interface {
	Token() string
}

// envelope is the backend's uniform response shape. The getNotes endpoint
// returns its payload under "notes" instead of "data".
type envelope struct {
	Success bool                 `json:"success"`
	Data    json.RawMessage      `json:"data"`
	Message string               `json:"message"`
	Notes   []domain.ProjectNote `json:"notes"`
}

// Client calls the ProjectFlow backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	retryCfg   *retry.Config
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a backend client. tokens may be nil for a purely public
// client (the tracker gateway before login support is configured).
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.New(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("backend circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		tokens:   tokens,
		retryCfg: retry.DefaultConfig(),
		breaker:  breaker,
		logger:   logger,
	}
}

// token returns the current session token, or "".
func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// statusError distinguishes HTTP-level failures so retry can skip the
// permanent ones.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.code, e.message)
}

// backendUnhealthy reports whether err means the backend is down or erroring:
// a transport failure or a 5xx. Client-side rejections keep the circuit closed.
func backendUnhealthy(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// call performs one enveloped request and decodes the "data" payload into
// out, which may be nil when the payload is irrelevant.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any, authRequired bool) error {
	env, err := c.callEnv(ctx, op, method, path, body, authRequired)
	if err != nil {
		return err
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode response data: %w", op, err)
		}
	}
	return nil
}

// callEnv is the shared request core. authRequired causes an immediate
// domain.ErrNotAuthenticated when no token is available, instead of a
// round-trip the backend would reject anyway.
func (c *Client) callEnv(ctx context.Context, op, method, path string, body any, authRequired bool) (*envelope, error) {
	if authRequired && c.token() == "" {
		return nil, domain.ErrNotAuthenticated
	}

	if !c.breaker.AllowRequest() {
		c.logger.Warn("circuit open, refusing remote call", slog.String("operation", op))
		return nil, domain.ErrCircuitOpen
	}

	start := time.Now()
	env, err := retry.Do(ctx, c.retryCfg, c.logger, op, func(ctx context.Context) (*envelope, error) {
		return c.attempt(ctx, method, path, body)
	})

	result := "success"
	if err != nil {
		result = "failure"
	}
	// The circuit tracks backend health, not call outcomes: a 4xx or an
	// envelope rejection is the backend answering and must not trip it.
	if backendUnhealthy(err) {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	metrics.ObserveAPICall(op, result, time.Since(start))

	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			switch se.code {
			case http.StatusNotFound:
				return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
			}
		}
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrRemoteCall, err)
	}

	return env, nil
}

// attempt performs a single HTTP round trip and envelope decode.
func (c *Client) attempt(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// An unparseable body on a non-2xx status still carries the status code,
	// so 404s and 401s map to their domain errors even without an envelope.
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		switch {
		case resp.StatusCode >= 500:
			return nil, &statusError{code: resp.StatusCode, message: "unparseable response"}
		case resp.StatusCode >= 400:
			return nil, retry.Permanent(&statusError{code: resp.StatusCode, message: "unparseable response"})
		default:
			return nil, retry.Permanent(fmt.Errorf("decode response envelope: %w", err))
		}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &statusError{code: resp.StatusCode, message: env.Message}
	case resp.StatusCode >= 400:
		return nil, retry.Permanent(&statusError{code: resp.StatusCode, message: env.Message})
	case !env.Success:
		msg := env.Message
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, retry.Permanent(fmt.Errorf("%s", msg))
	}

	return &env, nil
}
