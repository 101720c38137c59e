package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIResponder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		require.Equal(t, "ping", req.Messages[1].Content)

		_ = json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "pong"}}},
		})
	}))
	defer srv.Close()

	r := NewOpenAIResponder("test-key", srv.URL, "test-model", time.Second)
	require.True(t, r.IsAvailable())

	reply, err := r.Respond(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
}

func TestOpenAIResponderUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewOpenAIResponder("test-key", srv.URL, "", time.Second)
	_, err := r.Respond(context.Background(), "ping")
	require.ErrorIs(t, err, types.ErrResponderUnavailable)
}

func TestOpenAIResponderWithoutKeyIsUnavailable(t *testing.T) {
	r := NewOpenAIResponder("", "", "", time.Second)
	assert.False(t, r.IsAvailable())

	_, err := r.Respond(context.Background(), "ping")
	require.ErrorIs(t, err, types.ErrResponderUnavailable)
}

func TestOllamaResponder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)
		require.Equal(t, "ping", req.Prompt)

		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "pong"})
	}))
	defer srv.Close()

	r := NewOllamaResponder(srv.URL, "", time.Second)
	require.True(t, r.IsAvailable())

	reply, err := r.Respond(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
}

func TestNewResponderSelection(t *testing.T) {
	cfg := &config.Config{BotConfig: config.BotConfig{Provider: "openai", APIKey: "k", TimeoutSeconds: 5}}
	assert.IsType(t, &OpenAIResponder{}, NewResponder(cfg))

	cfg.BotConfig.Provider = "ollama"
	assert.IsType(t, &OllamaResponder{}, NewResponder(cfg))

	cfg.BotConfig.Provider = ""
	assert.False(t, NewResponder(cfg).IsAvailable())
}
