// Package llm is the OpenRouter chat-completions client used for document
// extraction and the business purpose judgement. Each call is a single
// best-effort request: no retries, one timeout, JSON-mode output.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"docval/internal/llm/metrics"
	"docval/pkg/platform/circuit"
	"docval/pkg/requestcontext"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel   = "google/gemini-2.0-flash-001"
	DefaultTimeout = 30 * time.Second

	previewLimit = 500
)

// Config carries the provider settings. Zero values fall back to defaults;
// RequestsPerSecond <= 0 disables client-side throttling.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       float64
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client calls the chat-completions endpoint. Safe for concurrent use.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *rate.Limiter
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker installs a circuit breaker. While it is open calls fail
// immediately with ErrorProviderOutage.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithHTTPClient replaces the underlying transport client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc)
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		cfg:     cfg,
		http:    resty.New(),
		limiter: rate.NewLimiter(limit, burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetLogger(newRestyLogger(c.logger))
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteJSON sends prompt as a single user message and returns the JSON
// document the model answered with. label names the prompt in logs and
// metrics. Failures are *ProviderError values.
func (c *Client) CompleteJSON(ctx context.Context, label, prompt string) (json.RawMessage, error) {
	start := time.Now()
	content, err := c.complete(ctx, label, prompt)
	c.metrics.ObserveRequestLatency(label, time.Since(start))
	if err != nil {
		c.metrics.IncrementRequest(string(GetCategory(err)))
		return nil, err
	}
	c.metrics.IncrementRequest("success")
	return content, nil
}

func (c *Client) complete(ctx context.Context, label, prompt string) (json.RawMessage, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, NewProviderError(ErrorProviderOutage, msgCircuitOpen, fmt.Errorf("circuit %s open", c.breaker.Name()))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.classifyTransport(ctx, label, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:          c.cfg.Model,
			Messages:       []chatMessage{{Role: "user", Content: prompt}},
			Temperature:    c.cfg.Temperature,
			ResponseFormat: responseFormat{Type: "json_object"},
		}).
		Post(c.cfg.BaseURL)
	if err != nil {
		perr := c.classifyTransport(ctx, label, err)
		c.recordFailure(perr)
		return nil, perr
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		perr := c.classifyStatus(resp.StatusCode())
		c.logger.ErrorContext(ctx, "LLM API error",
			"request_id", requestcontext.RequestID(ctx),
			"prompt", label,
			"model", c.cfg.Model,
			"status_code", resp.StatusCode(),
			"error_preview", preview(resp.String()),
		)
		c.recordFailure(perr)
		return nil, perr
	}
	c.recordSuccess()

	content, perr := parseContent(resp.Body())
	if perr != nil {
		c.logger.ErrorContext(ctx, "LLM response rejected",
			"request_id", requestcontext.RequestID(ctx),
			"prompt", label,
			"model", c.cfg.Model,
			"category", perr.Category,
			"response_preview", preview(resp.String()),
		)
		return nil, perr
	}
	return content, nil
}

// parseContent extracts choices[0].message.content and checks it is JSON.
func parseContent(body []byte) (json.RawMessage, *ProviderError) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, NewProviderError(ErrorBadData, msgInvalidBody, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, NewProviderError(ErrorContractMismatch, msgInvalidBody, errors.New("missing choices"))
	}
	msg := parsed.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return nil, NewProviderError(ErrorContractMismatch, msgBadStructure, errors.New("missing choices[0].message.content"))
	}
	content := strings.TrimSpace(*msg.Content)
	if content == "" {
		return nil, NewProviderError(ErrorContractMismatch, msgEmpty, errors.New("empty content"))
	}
	if !json.Valid([]byte(content)) {
		return nil, NewProviderError(ErrorBadData, msgBadJSON, fmt.Errorf("content is not JSON: %s", preview(content)))
	}
	return json.RawMessage(content), nil
}

func (c *Client) classifyTransport(ctx context.Context, label string, err error) *ProviderError {
	var perr *ProviderError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		perr = NewProviderError(ErrorTimeout, msgTimeout, err)
	case errors.Is(err, context.Canceled):
		perr = NewProviderError(ErrorInternal, msgTransport, err)
	default:
		perr = NewProviderError(ErrorProviderOutage, msgTransport, err)
	}
	c.logger.ErrorContext(ctx, "LLM transport error",
		"request_id", requestcontext.RequestID(ctx),
		"prompt", label,
		"model", c.cfg.Model,
		"category", perr.Category,
		"timeout_seconds", c.cfg.Timeout.Seconds(),
		"error", err,
	)
	return perr
}

func (c *Client) classifyStatus(status int) *ProviderError {
	var category ErrorCategory
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		category = ErrorAuthentication
	case status == http.StatusTooManyRequests:
		category = ErrorRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		category = ErrorTimeout
	case status >= http.StatusInternalServerError:
		category = ErrorProviderOutage
	default:
		category = ErrorContractMismatch
	}
	perr := NewProviderError(category, msgHTTPStatus, fmt.Errorf("status %d", status))
	perr.StatusCode = status
	return perr
}

// recordFailure counts only failures that say the provider is unhealthy.
func (c *Client) recordFailure(err *ProviderError) {
	if c.breaker == nil || !IsRetryable(err) {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.CircuitOpened()
		c.logger.Warn("LLM circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess() {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.CircuitClosed()
		c.logger.Info("LLM circuit closed", "breaker", c.breaker.Name())
	}
}

func preview(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	return s[:previewLimit]
}
