// Package gemini provides the client for the generative text/vision
// endpoint that powers the sous-chef assistant. The client owns the
// retry/backoff/timeout policy; callers never retry on top of it.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/logger"
)

// ── Wire types ───────────────────────────────────────────────────

// Role constants for content blocks.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is a single role-tagged message in the request body.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a polymorphic content block: text or inline image data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob carries base64-encoded media bytes.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// TextContent is a convenience constructor for a plain-text content block.
func TextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// generationConfig tunes sampling on the remote model.
type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// safetySetting relaxes or tightens a harm category threshold.
type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// payload is the request body sent to the generateContent endpoint.
type payload struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings,omitempty"`
}

// apiResponse is the top-level response envelope.
type apiResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content struct {
		Parts []Part `json:"parts"`
	} `json:"content"`
}

// defaultSafetySettings keep food-related content (knives, raw meat,
// alcohol in recipes) from tripping the blunter harm filters.
var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
}

// ── Client ───────────────────────────────────────────────────────

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel overrides the default model name.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithMaxRetries sets how many times a failed request is retried before
// the terminal failure surfaces.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithAttemptTimeout sets the wall-clock timeout applied to each attempt.
func WithAttemptTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.attemptTimeout = d }
}

// WithRetryInterval sets the delay before the first retry. Subsequent
// delays grow by the backoff multiplier.
func WithRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.retryInterval = d }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) { c.maxTokens = n }
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// Client talks to a Gemini-style generateContent endpoint.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	temperature    float64
	topP           float64
	maxTokens      int
	maxRetries     int
	attemptTimeout time.Duration
	retryInterval  time.Duration
	http           *http.Client
	log            *logger.Logger
}

// NewClient creates a client for the given endpoint base URL
// (e.g. "https://generativelanguage.googleapis.com") and API key.
func NewClient(baseURL, apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		model:          "gemini-2.0-flash",
		temperature:    0.7,
		topP:           0.95,
		maxTokens:      800,
		maxRetries:     3,
		attemptTimeout: 30 * time.Second,
		retryInterval:  time.Second,
		http:           &http.Client{},
		log:            log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// endpoint returns the full generateContent URL.
func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
}

// GenerateText sends a single-turn prompt with an optional JPEG frame and
// returns the model's reply. This is the primary operation most callers
// need; multi-turn callers use Generate directly.
func (c *Client) GenerateText(ctx context.Context, prompt string, frame []byte) (string, error) {
	parts := []Part{{Text: prompt}}
	if len(frame) > 0 {
		parts = append(parts, Part{InlineData: &Blob{
			MIMEType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(frame),
		}})
	}
	return c.Generate(ctx, []Content{{Role: RoleUser, Parts: parts}})
}

// Generate sends the given contents and returns the trimmed text of the
// first candidate. Failed requests are retried up to the configured maximum
// with exponentially increasing delay; the terminal error is one of the
// domain sentinels (ErrTimeout, ErrInvalidAPIKey, ErrRateLimited,
// ErrRequestFailed, ErrInvalidResponseFormat).
func (c *Client) Generate(ctx context.Context, contents []Content) (string, error) {
	body := payload{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     c.temperature,
			TopP:            c.topP,
			MaxOutputTokens: c.maxTokens,
		},
		SafetySettings: defaultSafetySettings,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal payload: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.RandomizationFactor = 0 // deterministic, strictly increasing delays
	bo.Multiplier = 2

	attempt := 0
	reply, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		text, attemptErr := c.doRequest(ctx, jsonData)
		if attemptErr != nil {
			c.log.Debug("gemini: attempt %d failed: %v", attempt, attemptErr)
		}
		return text, attemptErr
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(c.maxRetries)+1))
	if err != nil {
		c.log.Error("gemini: giving up after %d attempt(s): %v", attempt, err)
		return "", err
	}

	c.log.Debug("gemini: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}

// doRequest performs one POST attempt with the per-attempt timeout and
// classifies failures. Terminal failures are wrapped in backoff.Permanent
// so retrying stops immediately.
func (c *Client) doRequest(ctx context.Context, jsonData []byte) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint(), bytes.NewReader(jsonData))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("gemini: create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.log.Debug("gemini: POST %s (%d bytes)", c.endpoint(), len(jsonData))

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("gemini: %w: %v", domain.ErrTimeout, err)
		}
		if ctx.Err() != nil {
			// Parent context cancelled; no point retrying.
			return "", backoff.Permanent(fmt.Errorf("gemini: %w: %v", domain.ErrRequestFailed, ctx.Err()))
		}
		return "", fmt.Errorf("gemini: %w: %v", domain.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: %w: reading response: %v", domain.ErrRequestFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to parsing.
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", backoff.Permanent(fmt.Errorf("gemini: %w: HTTP %d", domain.ErrInvalidAPIKey, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("gemini: %w: HTTP 429", domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("gemini: %w: HTTP %d: %s", domain.ErrRequestFailed, resp.StatusCode, truncate(string(respBody), 200))
	default:
		return "", backoff.Permanent(fmt.Errorf("gemini: %w: HTTP %d: %s", domain.ErrRequestFailed, resp.StatusCode, truncate(string(respBody), 200)))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", backoff.Permanent(fmt.Errorf("gemini: %w: %v", domain.ErrInvalidResponseFormat, err))
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", backoff.Permanent(fmt.Errorf("gemini: %w: no candidates", domain.ErrInvalidResponseFormat))
	}
	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", backoff.Permanent(fmt.Errorf("gemini: %w: empty candidate text", domain.ErrInvalidResponseFormat))
	}
	return text, nil
}

// isTimeout reports whether err is a network-level timeout.
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// truncate shortens a string for logging.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
