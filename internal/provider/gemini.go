// Package provider wraps the Gemini API behind the narrow classify call the
// gateway needs, so the model can be swapped or mocked without touching
// request building.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/teuglobal/htsgate/internal/composer"
)

const (
	// DefaultModel matches the model the browser client was built against.
	DefaultModel = "gemini-3-flash-preview"

	defaultTimeout = 45 * time.Second
)

// Client issues single, non-retried generateContent calls. Each call builds
// its own content list; nothing is shared across invocations besides the
// underlying HTTP client.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
}

// New creates a Gemini-backed client. model and timeout fall back to
// defaults when zero.
func New(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	return newClient(ctx, apiKey, model, timeout, "", nil)
}

// NewWithBaseURL points the client at a custom endpoint (used by tests).
func NewWithBaseURL(ctx context.Context, apiKey, model, baseURL string, hc *http.Client) (*Client, error) {
	return newClient(ctx, apiKey, model, defaultTimeout, baseURL, hc)
}

func newClient(ctx context.Context, apiKey, model string, timeout time.Duration, baseURL string, hc *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{genai: client, model: model, timeout: timeout}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Classify forwards the assembled request to the provider and returns its
// response text as raw JSON. JSON-typed output is requested at temperature 0
// with thinking disabled for latency; the payload is not validated against
// any schema here — malformed model output is the downstream caller's parse
// problem. One call, no retry.
func (c *Client) Classify(ctx context.Context, req composer.Request) (json.RawMessage, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.Data != nil {
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MimeType))
		} else {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0),
		},
	}

	resp, err := c.genai.Models.GenerateContent(callCtx, c.model, contents, cfg)
	if err != nil {
		return nil, classifyError(callCtx, err)
	}

	return json.RawMessage(resp.Text()), nil
}

// classifyError maps SDK failures onto the gateway taxonomy: provider
// statuses keep their code and body, everything else is a transport error.
func classifyError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIStatusError{
			StatusCode: apiErr.Code,
			Body:       apiErrorBody(apiErr),
		}
	}
	timeout := errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded
	return &TransportError{Timeout: timeout, Err: err}
}

// apiErrorBody rebuilds the provider's error envelope so the caller sees the
// same shape the API returned.
func apiErrorBody(apiErr genai.APIError) []byte {
	body, err := json.Marshal(map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"status":  apiErr.Status,
		},
	})
	if err != nil {
		return []byte(fmt.Sprintf(`{"error":%q}`, apiErr.Message))
	}
	return body
}
