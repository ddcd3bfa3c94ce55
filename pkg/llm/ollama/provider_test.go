package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"medical-text2sql-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   got.Model,
			Message: ollamaMessage{Role: "assistant", Content: "SELECT 1"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "qwen2.5", 0)
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: "model", Content: "prev"},
	}, llm.WithTemperature(0.1), llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", out)
	assert.Equal(t, "qwen2.5", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.InDelta(t, 0.1, got.Options.Temperature, 1e-9)
	assert.Equal(t, 64, got.Options.NumPredict)
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing", 0)
	_, err := p.Generate(context.Background(), "hi", llm.WithModel("other"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
