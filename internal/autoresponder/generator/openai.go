package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	defaultTemperature = 0.5
	defaultMaxTokens   = 300
)

// OpenAIConfig carries the tunables of the chat-completion call.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	SystemPrompt string
}

// OpenAIGenerator generates replies with the OpenAI chat completions API.
type OpenAIGenerator struct {
	client       openai.Client
	model        shared.ChatModel
	systemPrompt string
}

// NewOpenAIGenerator creates a Generator backed by OpenAI chat completions.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:       openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:        shared.ChatModel(cfg.Model),
		systemPrompt: cfg.SystemPrompt,
	}
}

// Generate asks the model for a reply to cleanText.
func (g *OpenAIGenerator) Generate(ctx context.Context, cleanText string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.systemPrompt),
			openai.UserMessage(cleanText),
		},
		Model:               g.model,
		Temperature:         openai.Float(defaultTemperature),
		MaxCompletionTokens: openai.Int(defaultMaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
