package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaterm/chaterm/session"
	"github.com/chaterm/chaterm/tools"
)

func TestStreamChatRequestShape(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key")
	req := Request{
		Model: "test-model",
		Turns: []session.Turn{
			{Role: session.RoleSystem, Content: "be brief"},
			{Role: session.RoleUser, Content: "hi"},
		},
		Temperature: 0.5,
		MaxTokens:   128,
		Tools: []tools.Declaration{
			{Name: "calculate", Description: "math", Parameters: map[string]any{"type": "object"}},
		},
	}
	stream, err := client.StreamChat(context.Background(), req)
	require.NoError(t, err)
	events, err := drain(t, stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	require.Len(t, events, 1)
	assert.Equal(t, "Hello", events[0].Content)

	assert.Equal(t, "test-model", got.Model)
	assert.True(t, got.Stream)
	assert.Equal(t, 0.5, got.Temperature)
	assert.Equal(t, 128, got.MaxTokens)
	assert.Equal(t, "auto", got.ToolChoice)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "calculate", got.Tools[0].Function.Name)
}

func TestStreamChatSendsToolTurns(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "k")
	req := Request{
		Model: "m",
		Turns: []session.Turn{
			{Role: session.RoleUser, Content: "what is 2+2"},
			{Role: session.RoleAssistant, ToolCalls: []session.ToolCall{
				{ID: "call_1", Name: "calculate", Arguments: `{"expression":"2+2"}`},
			}},
			{Role: session.RoleTool, Content: "4", ToolCallID: "call_1"},
		},
	}
	stream, err := client.StreamChat(context.Background(), req)
	require.NoError(t, err)
	_, err = drain(t, stream)
	require.NoError(t, err)
	stream.Close()

	require.Len(t, got.Messages, 3)
	require.Len(t, got.Messages[1].ToolCalls, 1)
	assert.Equal(t, "call_1", got.Messages[1].ToolCalls[0].ID)
	assert.Equal(t, "function", got.Messages[1].ToolCalls[0].Type)
	assert.Equal(t, "calculate", got.Messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_1", got.Messages[2].ToolCallID)
}

func TestStreamChatErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "wrong")
	_, err := client.StreamChat(context.Background(), Request{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"alpha","object":"model"},{"id":"beta","object":"model"}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "k")
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "alpha", models[0].ID)
	assert.Equal(t, "beta", models[1].ID)
}
