package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Harm categories the builtin layer scores every text against.
const (
	CategoryHate             = "hate"
	CategoryDangerousContent = "dangerous_content"
	CategoryHarassment       = "harassment"
	CategorySexual           = "sexual"
)

// DefaultThreshold is the per-category blocking threshold used when no
// category-specific threshold is configured.
const DefaultThreshold = 0.5

// BuiltinClient scores text against the builtin layer's fixed harm
// categories. Implementations must be safe for concurrent use.
type BuiltinClient interface {
	// Score returns the per-category harm scores for the text.
	Score(ctx context.Context, text string, direction Direction) (map[string]float64, error)
}

// BuiltinHTTPConfig configures the builtin moderation client.
type BuiltinHTTPConfig struct {
	// BaseURL is the base URL of the builtin moderation service.
	BaseURL string

	// APIKey authenticates the client, sent as a bearer token.
	APIKey string

	// Timeout is the per-call timeout.
	// Default: 10s
	Timeout time.Duration
}

// BuiltinHTTPClient is the production BuiltinClient. The pooled HTTP
// client is constructed once and reused for the process lifetime.
type BuiltinHTTPClient struct {
	config BuiltinHTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewBuiltinHTTPClient creates a builtin moderation client.
func NewBuiltinHTTPClient(cfg BuiltinHTTPConfig) *BuiltinHTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &BuiltinHTTPClient{
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
				ForceAttemptHTTP2: true,
			},
			Timeout: cfg.Timeout,
		},
		logger: slog.Default().With("component", "moderation.builtin"),
	}
}

// Score sends one scoring request. No retries are issued.
func (c *BuiltinHTTPClient) Score(ctx context.Context, text string, direction Direction) (map[string]float64, error) {
	body, err := json.Marshal(struct {
		Text      string    `json:"text"`
		Direction Direction `json:"direction"`
	}{Text: text, Direction: direction})
	if err != nil {
		return nil, &LayerError{Layer: SourceBuiltin, Message: "encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/moderate", bytes.NewReader(body))
	if err != nil {
		return nil, &LayerError{Layer: SourceBuiltin, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &LayerError{Layer: SourceBuiltin, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &LayerError{Layer: SourceBuiltin, Message: "read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &LayerError{
			Layer:      SourceBuiltin,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%.200s", string(respBody)),
		}
	}

	var out struct {
		CategoryScores map[string]float64 `json:"categoryScores"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &LayerError{Layer: SourceBuiltin, StatusCode: resp.StatusCode, Message: "decode response", Cause: err}
	}

	c.logger.Debug("builtin moderation scored", "direction", direction, "categories", len(out.CategoryScores))
	return out.CategoryScores, nil
}
