// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	config *Config
	client *openai.Client
}

func NewOpenAIProvider(config *Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       model,
			Messages:    toOpenAIMessages(messages),
			Temperature: p.config.Temperature,
			TopP:        p.config.TopP,
		},
	)
	if err != nil {
		return "", NewProviderError("completion", "failed to create completion", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{
			Type:      ErrTypeProvider,
			Operation: "completion",
			Message:   "empty completion response",
			Model:     model,
		}
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) StreamCompletion(ctx context.Context, model string, messages []ChatMessage, onDelta func(string) error) error {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: p.config.Temperature,
		TopP:        p.config.TopP,
	})
	if err != nil {
		return NewProviderError("streaming", "failed to create stream", err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return NewProviderError("streaming", "stream receive error", err)
		}

		if len(response.Choices) > 0 {
			delta := response.Choices[0].Delta.Content
			if delta != "" && onDelta != nil {
				if cbErr := onDelta(delta); cbErr != nil {
					return cbErr
				}
			}
		}
	}
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
