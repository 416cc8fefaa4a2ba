// Package assistant forwards composed messages to the remote chat completion
// and image analysis endpoints.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

// Message is one prior turn of the conversation, as the composer stores it.
type Message struct {
	Role    string
	Content string
}

const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Client wraps the AI inference API used for chat replies and image analysis.
type Client struct {
	api    *openai.Client
	model  string
	system string
	logger *slog.Logger
}

// New builds an assistant client. baseURL overrides the API host when set,
// which is how tests and self-hosted deployments point it elsewhere.
func New(apiKey string, baseURL string, model string, systemPrompt string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if model == "" {
		model = DefaultModel
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		api:    openai.NewClientWithConfig(config),
		model:  model,
		system: systemPrompt,
		logger: logger,
	}
}

// Complete sends the conversation plus one new user prompt and returns the
// assistant's reply.
func (c *Client) Complete(ctx context.Context, history []Message, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: buildMessages(c.system, history, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	reply := resp.Choices[0].Message.Content
	c.logger.Debug("chat completion resolved", "model", c.model, "chars", len(reply))
	return reply, nil
}

// DescribeImage asks the vision endpoint about one uploaded image.
func (c *Client) DescribeImage(ctx context.Context, imageURL string, prompt string) (string, error) {
	if prompt == "" {
		prompt = "Describe this image."
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("image analysis: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("image analysis returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages assembles the system prompt, prior turns, and the new prompt
// in conversation order.
func buildMessages(system string, history []Message, prompt string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, turn := range history {
		role := turn.Role
		if role != RoleAssistant {
			role = RoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	return messages
}
