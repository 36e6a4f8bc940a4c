package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/ports"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	maxTokens               = 1024
)

// AnthropicClient implements ports.Summarizer against the Anthropic
// Messages API.
type AnthropicClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Summarizer = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client for the given model and credential.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		baseURL: anthropicDefaultBaseURL,
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithBaseURL redirects API calls, used by tests.
func (c *AnthropicClient) WithBaseURL(baseURL string) *AnthropicClient {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Review sends the paper for assessment and parses the structured result.
func (c *AnthropicClient) Review(ctx context.Context, paper domain.Paper) (domain.Review, error) {
	if c.apiKey == "" || c.model == "" {
		return domain.Review{}, fmt.Errorf("anthropic client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": maxTokens,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(paper)},
		},
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("marshal anthropic payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return domain.Review{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Review{}, fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Review{}, fmt.Errorf("anthropic error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Review{}, fmt.Errorf("decode anthropic response: %w", err)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return domain.Review{}, fmt.Errorf("anthropic response has no text content")
	}

	return parseReview(text)
}
