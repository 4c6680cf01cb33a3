package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meal-planner/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroqClient(t *testing.T, handler http.HandlerFunc) *groqClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewGroqClient(&config.Config{GroqAPIKey: "test-key", GroqModel: "llama-test"}).(*groqClient)
	c.endpoint = server.URL
	return c
}

func TestGroqClient_GenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "llama-test", body["model"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"choices": [{"message": {"content": "{\"ok\": true}"}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
			}`))
		})

		resp, err := c.GenerateContent(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, `{"ok": true}`, resp.Content)
		assert.Equal(t, 12, resp.Usage.PromptTokens)
		assert.Equal(t, 5, resp.Usage.CompletionTokens)
		assert.Equal(t, 17, resp.Usage.TotalTokens)
		assert.Equal(t, "llama-test", resp.Usage.Model)
	})

	t.Run("APIError", func(t *testing.T) {
		c := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})

		_, err := c.GenerateContent(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=429")
	})

	t.Run("NoChoices", func(t *testing.T) {
		c := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		})

		_, err := c.GenerateContent(context.Background(), "hello")
		assert.EqualError(t, err, "no content generated")
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1} `))
}

func TestNewFromConfig_NoProvider(t *testing.T) {
	gen, err := NewFromConfig(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, gen)
}
