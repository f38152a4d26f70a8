// Package openai is the HTTP client for the AI provider: a key-validation
// probe against the models-list endpoint and a thin chat-completion wrapper.
package openai

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

	"github.com/dataforge-ai/dataforge/pkg/models"
)

// Sentinel errors for provider failures.
var (
	ErrProviderUnreachable = errors.New("ai provider unreachable")
	ErrInvalidKey          = errors.New("api key rejected by provider")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// ValidationResult is the advisory outcome of a key probe. A key that passes
// validation is still only as trustworthy as the channel it is stored in.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ChatMessage is one turn of a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an OpenAI-compatible HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ValidateKey probes the models-list endpoint with the candidate key as
// bearer credential. Empty input is rejected without a network call. The
// probe never returns an error; every failure maps to a rejection reason.
func (c *Client) ValidateKey(ctx context.Context, key string) ValidationResult {
	if strings.TrimSpace(key) == "" {
		return ValidationResult{Reason: "missing key"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return ValidationResult{Reason: "could not validate, check connectivity"}
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(key))

	resp, err := c.client.Do(req)
	if err != nil {
		return ValidationResult{Reason: "could not validate, check connectivity"}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ValidationResult{Valid: true}
	case resp.StatusCode == http.StatusUnauthorized:
		return ValidationResult{Reason: "invalid key"}
	default:
		if msg := providerErrorMessage(resp.Body); msg != "" {
			return ValidationResult{Reason: msg}
		}
		return ValidationResult{Reason: "unknown error"}
	}
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request with the given key and model and
// returns the first choice's content.
func (c *Client) Complete(ctx context.Context, key string, model models.Model, messages []ChatMessage) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       string(model),
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(key))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrInvalidKey
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := providerErrorMessage(resp.Body); msg != "" {
			return "", fmt.Errorf("completion failed (status %d): %s", resp.StatusCode, msg)
		}
		return "", fmt.Errorf("completion failed: status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}
	return parsed.Choices[0].Message.Content, nil
}

// providerErrorMessage extracts the provider's error message from a response
// body of the form {"error": {"message": "..."}}. Returns "" when absent.
func providerErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return ""
	}
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Error.Message)
}
