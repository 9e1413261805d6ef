package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1}  `))
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"strict", `{"intent":"all_unpaid","confidence":0.9}`},
		{"fenced", "```json\n{\"intent\":\"all_unpaid\",\"confidence\":0.9}\n```"},
		{"surrounding prose", `Here you go: {"intent":"all_unpaid","confidence":0.9} hope it helps`},
		{"trailing comma", `{"intent":"all_unpaid","confidence":0.9,}`},
		{"single quotes", `{'intent':'all_unpaid','confidence':0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			require.NoError(t, DecodeJSON(tt.raw, &got))
			assert.Equal(t, "all_unpaid", got.Intent)
			assert.InDelta(t, 0.9, got.Confidence, 1e-9)
		})
	}
}

func TestDecodeJSON_Empty(t *testing.T) {
	var got sample
	assert.Error(t, DecodeJSON("   ", &got))
}

type stubClient struct {
	resp openai.ChatCompletionResponse
	err  error
}

func (s stubClient) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return s.resp, s.err
}

func TestComplete(t *testing.T) {
	ok := stubClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  hello \n"}}},
	}}
	got, err := Complete(context.Background(), ok, openai.ChatCompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = Complete(context.Background(), stubClient{}, openai.ChatCompletionRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("boom")
	_, err = Complete(context.Background(), stubClient{err: boom}, openai.ChatCompletionRequest{})
	assert.ErrorIs(t, err, boom)
}
