package llm

import (
	"context" // Context for API calls
	"errors"  // Empty-response guard
	"fmt"     // Error wrapping

	"github.com/sashabaranov/go-openai" // OpenAI API client
)

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient wraps the chat-completions API behind Completer.
type OpenAIClient struct {
	api   *openai.Client // OpenAI API client
	model string         // Chat completion model
}

// NewOpenAIClient builds the client.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		api:   openai.NewClient(apiKey), // OpenAI API client
		model: model,                    // Chat completion model
	}
}

// Complete sends the prompt as a single user message and returns the
// first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model, // Chat completion model
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt}, // The user's prompt
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
