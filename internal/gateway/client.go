package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"beauty-kart/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const maxResponseBytes = 1 << 20

// Config holds the remote API client settings.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// response is a successful remote answer.
type response struct {
	status int
	body   []byte
}

// Client calls the remote REST API. It implements CartGateway,
// CatalogGateway, OrderGateway and AuthGateway. Calls go through a circuit
// breaker that opens after consecutive transport or 5xx failures.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*response]
	logger     zerolog.Logger
}

// NewClient creates a Client for the given configuration.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote API url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote API url %q: scheme and host are required", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	log := logger.With().Str("component", "remote-gateway").Logger()

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "remote-api",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isServerFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		logger:     log,
	}, nil
}

// do sends a JSON request and decodes the answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(ctx, op, method, path, in)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &Error{Op: op, Message: err.Error(), Err: model.ErrNetworkFailure}
		}
		var gwErr *Error
		if !errors.As(err, &gwErr) {
			return networkError(op, err)
		}
		return gwErr
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &Error{
			Op:      op,
			Status:  resp.status,
			Message: fmt.Sprintf("invalid response body: %v", err),
			Err:     model.ErrRemoteRejected,
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, in any) (*response, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL.String() + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("op", op).
			Str("method", method).
			Str("path", path).
			Msg("remote call failed")
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, networkError(op, err)
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("remote call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, resp.StatusCode, data)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// unwrap decodes body either directly or from under key when the API wraps
// the document, as in {"commande": {...}}.
func unwrap(body json.RawMessage, key string, out any) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if inner, ok := envelope[key]; ok && len(inner) > 0 && inner[0] == '{' {
			return json.Unmarshal(inner, out)
		}
	}
	return json.Unmarshal(body, out)
}

// doEnveloped runs do and then unwraps the body under key.
func (c *Client) doEnveloped(ctx context.Context, op, method, path string, in any, key string, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, op, method, path, in, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return &Error{Op: op, Message: "empty response body", Err: model.ErrRemoteRejected}
	}
	if err := unwrap(raw, key, out); err != nil {
		return &Error{
			Op:      op,
			Message: fmt.Sprintf("invalid response body: %v", err),
			Err:     model.ErrRemoteRejected,
		}
	}
	return nil
}

// segment escapes an identifier for use as a path segment.
func segment(id string) string {
	return url.PathEscape(id)
}
