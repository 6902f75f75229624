package groq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) model.ToolCallingChatModel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	temperature := float32(1)
	maxTokens := 1024
	m, err := NewChatModel(context.Background(), &Config{
		BaseURL:      srv.URL + "/",
		APIKey:       "test-key",
		Model:        "groq/compound",
		Temperature:  &temperature,
		MaxTokens:    &maxTokens,
		EnabledTools: []string{"web_search", "visit_website"},
	})
	require.NoError(t, err)
	return m
}

func TestGenerateSendsCompletionRequest(t *testing.T) {
	var body []byte
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "latest", r.Header.Get(ModelVersionHeader))
		body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"groq/compound","choices":[{"index":0,"message":{"role":"assistant","content":"Try **Portugal**"},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`)
	})

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You are a helpful chat assistant."),
		schema.UserMessage("where should I go?"),
	})
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, "Try **Portugal**", msg.Content)
	require.NotNil(t, msg.ResponseMeta)
	assert.Equal(t, "stop", msg.ResponseMeta.FinishReason)
	require.NotNil(t, msg.ResponseMeta.Usage)
	assert.Equal(t, 16, msg.ResponseMeta.Usage.TotalTokens)

	require.True(t, gjson.ValidBytes(body))
	assert.Equal(t, "groq/compound", gjson.GetBytes(body, "model").String())
	assert.EqualValues(t, 1024, gjson.GetBytes(body, "max_completion_tokens").Int())
	assert.Equal(t, "system", gjson.GetBytes(body, "messages.0.role").String())
	assert.Equal(t, "where should I go?", gjson.GetBytes(body, "messages.1.content").String())
	assert.Equal(t, `["web_search","visit_website"]`, gjson.GetBytes(body, "compound_custom.tools.enabled_tools").Raw)
}

func TestStreamReadsServerSentEvents(t *testing.T) {
	var body []byte
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		assert.Equal(t, "latest", r.Header.Get(ModelVersionHeader))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Try ", "**Portugal**"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		b.WriteString(chunk.Content)
	}
	assert.Equal(t, "Try **Portugal**", b.String())
	assert.True(t, gjson.GetBytes(body, "stream").Bool())
	assert.True(t, gjson.GetBytes(body, "compound_custom").Exists())
}

func TestGenerateReturnsAPIError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"error":{"message":"Request Too Large","type":"invalid_request_error"}}`)
	})

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Request Too Large")
}

func TestNewChatModelValidation(t *testing.T) {
	_, err := NewChatModel(context.Background(), &Config{Model: "groq/compound"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewChatModel(context.Background(), &Config{APIKey: "k"})
	assert.ErrorIs(t, err, ErrMissingModel)
}

func TestHTTPClientKeepsCallerTransport(t *testing.T) {
	var seen http.Header
	caller := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Request: r}, nil
	})}

	client := httpClient(&Config{HTTPClient: caller})
	require.NotSame(t, caller, client)

	req := httptest.NewRequest(http.MethodGet, "http://groq.test/", nil)
	req.RequestURI = ""
	req.Header.Set("X-Caller", "1")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "latest", seen.Get(ModelVersionHeader))
	assert.Equal(t, "1", seen.Get("X-Caller"))
	assert.Empty(t, req.Header.Get(ModelVersionHeader))
	assert.Nil(t, extraFields(nil))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
