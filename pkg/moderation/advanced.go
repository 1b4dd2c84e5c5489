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

// AdvancedScan is the advanced layer's answer for one text.
type AdvancedScan struct {
	// Blocked reports whether any template filter matched.
	Blocked bool `json:"blocked"`

	// Signals describe the matched filters (e.g., prompt-injection
	// signatures, malicious URIs, embedded PII).
	Signals []string `json:"signals"`
}

// AdvancedClient scans text against a configured policy template.
// Implementations must be safe for concurrent use.
type AdvancedClient interface {
	// Scan evaluates the text against the named template.
	Scan(ctx context.Context, text, templateID string) (*AdvancedScan, error)
}

// AdvancedHTTPConfig configures the advanced moderation client.
type AdvancedHTTPConfig struct {
	// BaseURL is the base URL of the advanced moderation service.
	BaseURL string

	// APIKey authenticates the client, sent as a bearer token.
	APIKey string

	// Timeout is the per-call timeout.
	// Default: 10s
	Timeout time.Duration
}

// AdvancedHTTPClient is the production AdvancedClient. The pooled HTTP
// client is constructed once and reused for the process lifetime.
type AdvancedHTTPClient struct {
	config AdvancedHTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewAdvancedHTTPClient creates an advanced moderation client.
func NewAdvancedHTTPClient(cfg AdvancedHTTPConfig) *AdvancedHTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &AdvancedHTTPClient{
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
				ForceAttemptHTTP2: true,
			},
			Timeout: cfg.Timeout,
		},
		logger: slog.Default().With("component", "moderation.advanced"),
	}
}

// Scan sends one template scan request. No retries are issued.
func (c *AdvancedHTTPClient) Scan(ctx context.Context, text, templateID string) (*AdvancedScan, error) {
	body, err := json.Marshal(struct {
		Text       string `json:"text"`
		TemplateID string `json:"templateId"`
	}{Text: text, TemplateID: templateID})
	if err != nil {
		return nil, &LayerError{Layer: SourceAdvanced, Message: "encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/scan", bytes.NewReader(body))
	if err != nil {
		return nil, &LayerError{Layer: SourceAdvanced, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &LayerError{Layer: SourceAdvanced, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &LayerError{Layer: SourceAdvanced, Message: "read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &LayerError{
			Layer:      SourceAdvanced,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%.200s", string(respBody)),
		}
	}

	var out AdvancedScan
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &LayerError{Layer: SourceAdvanced, StatusCode: resp.StatusCode, Message: "decode response", Cause: err}
	}

	c.logger.Debug("advanced moderation scanned",
		"template", templateID,
		"blocked", out.Blocked,
		"signals", len(out.Signals),
	)
	return &out, nil
}
