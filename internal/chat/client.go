package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Message is one entry of the prompt sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client abstracts the hosted text-generation endpoint so tests can swap in
// a fake. One request, one response, no streaming.
type Client interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenAIClient(client *http.Client, baseURL, apiKey, model string) *OpenAIClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chat-completions",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenAIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: client,
		circuit:    cb,
	}
}

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one prompt and returns the generated text. Network errors,
// timeouts, and upstream rejections all map to ErrUpstream; the caller never
// retries automatically.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		var payload completionResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&payload); decErr != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("decode response: %v", decErr)
		}

		if resp.StatusCode != http.StatusOK {
			// Content/safety rejections arrive as structured errors.
			if payload.Error != nil {
				return nil, fmt.Errorf("upstream rejected request (%s): %s", payload.Error.Type, payload.Error.Message)
			}
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		if len(payload.Choices) == 0 {
			return nil, fmt.Errorf("upstream returned no choices")
		}
		return payload.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	text, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected result type", ErrUpstream)
	}
	return text, nil
}
