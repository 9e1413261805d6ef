// Package llm wraps the chat-completion API used for intent classification
// and open-ended answers.
//
// Environment Variables:
//   - OPENAI_API_KEY: API key for the OpenAI client
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the model sends back no choices
var ErrEmptyResponse = errors.New("no response choices from model")

// ChatClient is the subset of *openai.Client this module calls
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient returns an OpenAI client for apiKey
func NewClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

// Complete sends request and returns the trimmed content of the first choice
func Complete(ctx context.Context, client ChatClient, request openai.ChatCompletionRequest) (string, error) {
	const op = "Complete"

	resp, err := client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("%s: chat completion failed: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
