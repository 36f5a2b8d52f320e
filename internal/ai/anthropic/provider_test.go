package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/brandguard/internal/ai/prompt"
	"github.com/kiranshivaraju/brandguard/internal/ai/transport"
	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(url string) *Provider {
	return NewProvider(
		config.AnthropicConfig{BaseURL: url, APIKey: "sk-ant-test", Model: "claude-sonnet-4-5-20250929"},
		config.GenerationConfig{Temperature: 0.1, MaxTokens: 2048},
	)
}

func TestJudge_MessagesRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, prompt.System, req.System)
		assert.Equal(t, 2048, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Write([]byte(`{"content": [{"type": "text", "text": "{\"violation\":"}, {"type": "text", "text": " false}"}], "stop_reason": "end_turn"}`))
	}))
	defer ts.Close()

	out, err := newTestProvider(ts.URL).Judge(context.Background(), models.JudgeRequest{Transcript: "t"})
	require.NoError(t, err)
	assert.Equal(t, `{"violation": false}`, out)
}

func TestJudge_EmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content": [], "stop_reason": "max_tokens"}`))
	}))
	defer ts.Close()

	_, err := newTestProvider(ts.URL).Judge(context.Background(), models.JudgeRequest{})
	assert.ErrorIs(t, err, transport.ErrInvalidResponse)
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	assert.ErrorIs(t, newTestProvider(ts.URL).Ping(context.Background()), transport.ErrProviderUnavailable)
}
