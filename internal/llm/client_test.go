package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "/v1/chat/completions", gotPath)
}

func TestComplete(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(completionBody("SELECT 1")))
	})

	content, err := c.Complete(context.Background(), Request{System: "you are helpful", User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", content)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotPayload["model"])

	messages, ok := gotPayload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "you are helpful", first["content"])

	_, hasFormat := gotPayload["response_format"]
	assert.False(t, hasFormat, "no schema means no response_format")
}

func TestCompleteWithSchema(t *testing.T) {
	var gotPayload map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(completionBody(`{"answer":42}`)))
	})

	schema := map[string]any{"type": "object"}
	_, err := c.Complete(context.Background(), Request{System: "s", User: "u", Schema: schema})
	require.NoError(t, err)

	format, ok := gotPayload["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	inner := format["json_schema"].(map[string]any)
	assert.Equal(t, "response", inner["name"])
	assert.Equal(t, true, inner["strict"])
}

func TestCompleteErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})
	require.ErrorIs(t, err, ErrService)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteErrorPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	})

	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})
	require.ErrorIs(t, err, ErrService)
	assert.Contains(t, err.Error(), "model not found")
}

func TestCompleteEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestCompleteUndecodableResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	})

	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestCompleteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{System: "s", User: "u"})
	assert.ErrorIs(t, err, ErrService)
}

func TestCompleteJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody(`{"questions":["a","b"]}`)))
	})

	var out struct {
		Questions []string `json:"questions"`
	}
	err := c.CompleteJSON(context.Background(), Request{System: "s", User: "u", Schema: map[string]any{"type": "object"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Questions)
}

func TestCompleteJSONMalformedContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("this is prose, not JSON")))
	})

	var out map[string]any
	err := c.CompleteJSON(context.Background(), Request{System: "s", User: "u"}, &out)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
