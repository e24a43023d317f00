// internal/intent/openai.go
package intent

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

const (
	defaultExtractorTimeout = 60 * time.Second
)

// OpenAIConfig describes an OpenAI-compatible chat-completions endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIExtractor implements Extractor over an OpenAI-compatible
// chat-completions API.
type OpenAIExtractor struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIExtractor creates an extractor client from cfg.
func NewOpenAIExtractor(cfg OpenAIConfig) (*OpenAIExtractor, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("extractor API key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("extractor base URL is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("extractor model is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultExtractorTimeout
	}

	return &OpenAIExtractor{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Extract sends the prompt and returns the model output as raw JSON.
func (c *OpenAIExtractor) Extract(ctx context.Context, prompt string) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	})
	if err != nil {
		return nil, fmt.Errorf("encode extractor request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build extractor request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extractor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("extractor returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode extractor response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("extractor response has no choices")
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return nil, errors.New("extractor returned empty content")
	}

	return StripJSONFence(content), nil
}

// StripJSONFence removes a surrounding markdown code fence, since models
// tend to wrap JSON responses in ```json blocks.
func StripJSONFence(content string) json.RawMessage {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}
	return json.RawMessage(content)
}
