package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPConfig contains configuration for the HTTP detector client.
type HTTPConfig struct {
	// BaseURL is the base URL of the detector service.
	BaseURL string

	// APIKey authenticates the client, sent as a bearer token.
	APIKey string

	// Timeout is the per-call timeout.
	// Default: 10s
	Timeout time.Duration

	// MaxIdleConns is the connection pool size.
	// Default: 10
	MaxIdleConns int
}

// HTTPClient is the production Client implementation. It holds a pooled
// HTTP client constructed once and reused for the process lifetime;
// constructing per-call clients is disallowed due to connection-setup cost.
type HTTPClient struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates a detector client with connection pooling.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPClient{
		config: cfg,
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "dlp.detector"),
	}
}

// Inspect sends one inspection request. No retries are issued: the system
// favors fast, predictable failure over added latency and quota spend.
func (c *HTTPClient) Inspect(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ServiceError{Message: "encode request", Cause: err}
	}

	url := c.config.BaseURL + "/v1/inspect"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Message: "build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, &TimeoutError{Timeout: c.config.Timeout}
		}
		return nil, &ServiceError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ServiceError{Message: "read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: "decode response", Cause: err}
	}

	c.logger.Debug("inspection complete",
		"findings", len(out.Findings),
		"duration", time.Since(start),
	)
	return &out, nil
}

// classifyStatus maps a non-200 response to a typed client error.
func classifyStatus(status int, body []byte) error {
	msg := errorMessage(body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Message: msg}
	case http.StatusTooManyRequests:
		return &QuotaError{Message: msg}
	default:
		return &ServiceError{StatusCode: status, Message: msg}
	}
}

// errorMessage extracts a service error message from a response body,
// falling back to the raw body when it is not the expected JSON shape.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if len(body) == 0 {
		return "no error detail"
	}
	return fmt.Sprintf("%.200s", string(body))
}

// isTimeout reports whether err is a network timeout.
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
