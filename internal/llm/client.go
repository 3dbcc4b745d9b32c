// Package llm wraps the Gemini API behind the minimal interface the chat
// loop needs.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"inkwell/internal/logging"
)

// Client is the minimal completion interface the chat loop uses.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenAIClient generates replies using Google's Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a Gemini-backed chat client.
func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{client: client, model: model}, nil
}

// Complete sends a prompt and returns the model's text reply.
func (c *GenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	logging.Get(logging.CategoryLLM).Debugf("completion request: model=%s prompt_len=%d", c.model, len(prompt))

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI completion failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("no completion returned")
	}
	return text, nil
}
