package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/ports"
)

// OpenAIClient implements ports.Summarizer using the official openai-go
// SDK (chat completions).
type OpenAIClient struct {
	model string
	opts  []option.RequestOption
}

var _ ports.Summarizer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client for the given model and credential.
func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{model: model, opts: all}, nil
}

// Review sends the paper for assessment and parses the structured result.
func (c *OpenAIClient) Review(ctx context.Context, paper domain.Paper) (domain.Review, error) {
	client := openai.NewClient(c.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(paper)),
		},
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("call openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Review{}, fmt.Errorf("openai: empty choices")
	}

	return parseReview(resp.Choices[0].Message.Content)
}
