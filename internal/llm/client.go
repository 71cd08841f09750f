// Package llm is the client for the text-generation collaborator: an
// OpenAI-compatible chat completions endpoint. Requests carry a system
// instruction, user content, and an optional structural output schema; a
// schema makes the service return strict JSON the caller decodes.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrService marks faults reported by the generation service itself:
// network errors, quota, non-2xx responses, or an error payload.
var ErrService = errors.New("generation service error")

// ErrMalformedOutput marks completions whose shape did not match what was
// requested (empty choices, undecodable structured payload).
var ErrMalformedOutput = errors.New("malformed generation output")

// Config holds connection settings for the generation service.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Request is one generation call.
type Request struct {
	// System is the fixed instruction set.
	System string
	// User is the question or content being completed against.
	User string
	// Schema, when set, is a JSON schema the completion must satisfy.
	Schema map[string]any
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

// NewClient validates the config and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		client:      httpClient,
	}, nil
}

// Complete issues one chat completion and returns the raw message content.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature": c.temperature,
	}
	if req.Schema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"strict": true,
				"schema": req.Schema,
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response body: %v", ErrService, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status=%d body=%s", ErrService, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrMalformedOutput, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrService, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedOutput)
	}
	return parsed.Choices[0].Message.Content, nil
}

// CompleteJSON issues a structured completion and decodes the JSON content
// into out. req.Schema must be set.
func (c *Client) CompleteJSON(ctx context.Context, req Request, out any) error {
	content, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: decode structured content: %v", ErrMalformedOutput, err)
	}
	return nil
}
