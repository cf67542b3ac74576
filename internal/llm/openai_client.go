package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIClient calls the chat completions API through go-openai
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *logrus.Entry
}

// NewOpenAIClient creates a chat completions client. baseURL may be empty
// for the public API.
func NewOpenAIClient(apiKey, model, baseURL string, logger *logrus.Entry) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.WithField("model", model),
	}, nil
}

// Complete sends the prompt. An empty systemPrompt sends a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.WithFields(logrus.Fields{
		"prompt_length":   len(userPrompt),
		"response_length": len(response),
		"tokens_used":     resp.Usage.TotalTokens,
	}).Debug("openai completion")

	return response, nil
}
