package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openaiGenerator struct {
	api    *openai.Client
	apiKey string
	model  string
}

func newOpenAIGenerator(cfg ServiceConfig) *openaiGenerator {
	apiKey := strings.TrimSpace(cfg.OpenAIAPIKey)
	config := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.OpenAIBaseURL); baseURL != "" {
		config.BaseURL = baseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}
	model := strings.TrimSpace(cfg.OpenAIModel)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openaiGenerator{
		api:    openai.NewClientWithConfig(config),
		apiKey: apiKey,
		model:  model,
	}
}

func (g *openaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrAPIKeyMissing
	}

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
