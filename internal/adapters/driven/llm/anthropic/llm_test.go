package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
)

func newTestResponse(text string) map[string]any {
	return map[string]any{
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	}
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, 200, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "say hi", req.Messages[0].Content)

		require.NoError(t, json.NewEncoder(w).Encode(newTestResponse("hi there")))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "sk-ant-test", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := svc.Generate(context.Background(), "say hi", driven.GenerateOptions{MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestGenerate_DefaultMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// The messages API requires max_tokens; the adapter fills it in.
		assert.Equal(t, defaultMaxTokens, req.MaxTokens)
		require.NoError(t, json.NewEncoder(w).Encode(newTestResponse("ok")))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "sk-ant-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestChat_ExtractsSystemMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The system role becomes a top-level field, not a message.
		assert.Equal(t, "be terse", req.System)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[1].Role)

		require.NoError(t, json.NewEncoder(w).Encode(newTestResponse("done")))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "sk-ant-test", BaseURL: server.URL})
	require.NoError(t, err)

	messages := []driven.ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}
	text, err := svc.Chat(context.Background(), messages, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "done", text)
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		resp := map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "bad model"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "sk-ant-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
}
