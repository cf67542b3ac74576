package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// OpenAISDKClient calls chat completions through the official openai-go SDK
type OpenAISDKClient struct {
	client openai.Client
	model  string
	logger *logrus.Entry
}

// NewOpenAISDKClient creates an SDK-backed client
func NewOpenAISDKClient(apiKey, model, baseURL string, logger *logrus.Entry) (*OpenAISDKClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &OpenAISDKClient{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger.WithField("model", model),
	}, nil
}

// Complete sends the prompt. An empty systemPrompt sends a single user message.
func (c *OpenAISDKClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("openai sdk completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.WithFields(logrus.Fields{
		"prompt_length":   len(userPrompt),
		"response_length": len(response),
		"tokens_used":     resp.Usage.TotalTokens,
	}).Debug("openai sdk completion")

	return response, nil
}
