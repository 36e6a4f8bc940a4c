package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arxivmonitor/internal/domain"
)

func TestAnthropicClientReview(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey, gotVersion string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "{\"brief_overview\": \"Summary.\", \"technical_explanation\": \"Detail.\", \"categories\": [\"jailbreaking\"], \"relevance_score\": 7}"}
			]
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "claude-3-haiku-20240307").WithBaseURL(server.URL)

	review, err := client.Review(context.Background(), domain.Paper{
		Title:    "Test Paper",
		Abstract: "Abstract.",
	})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}

	if review.Overview != "Summary." || review.Relevance != 7 {
		t.Errorf("unexpected review: %+v", review)
	}

	if gotPath != "/v1/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if gotBody["model"] != "claude-3-haiku-20240307" {
		t.Errorf("model = %v", gotBody["model"])
	}
	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
	msg := messages[0].(map[string]any)
	if msg["role"] != "user" {
		t.Errorf("role = %v", msg["role"])
	}
	if content, _ := msg["content"].(string); !strings.Contains(content, "Test Paper") {
		t.Errorf("prompt does not carry the paper title: %q", content)
	}
}

func TestAnthropicClientAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "claude-3-haiku-20240307").WithBaseURL(server.URL)

	_, err := client.Review(context.Background(), domain.Paper{Title: "x"})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry the API message, got %v", err)
	}
}

func TestAnthropicClientNoTextContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": []}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "claude-3-haiku-20240307").WithBaseURL(server.URL)

	if _, err := client.Review(context.Background(), domain.Paper{Title: "x"}); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestAnthropicClientMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewAnthropicClient("", "claude-3-haiku-20240307")
	if _, err := client.Review(context.Background(), domain.Paper{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
