// Package groq builds an eino chat model for Groq's OpenAI compatible chat
// completions endpoint, including compound model tool selection.
package groq

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"

	// ModelVersionHeader pins compound models to their newest tool set.
	ModelVersionHeader = "Groq-Model-Version"
)

var (
	ErrMissingAPIKey = errors.New("groq api key is required")
	ErrMissingModel  = errors.New("groq model is required")
)

// Config describes how to reach the completions endpoint.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  *float32
	TopP         *float32
	MaxTokens    *int
	Stop         []string
	EnabledTools []string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// NewChatModel validates cfg and returns an OpenAI compatible model pointed
// at Groq. Streaming uses the endpoint's SSE mode.
func NewChatModel(ctx context.Context, cfg *Config) (model.ToolCallingChatModel, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, ErrMissingModel
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:              cfg.APIKey,
		BaseURL:             baseURL,
		Model:               cfg.Model,
		Temperature:         cfg.Temperature,
		TopP:                cfg.TopP,
		MaxCompletionTokens: cfg.MaxTokens,
		Stop:                cfg.Stop,
		HTTPClient:          httpClient(cfg),
		ExtraFields:         extraFields(cfg.EnabledTools),
	})
}

// extraFields carries compound_custom, which the OpenAI request type lacks.
func extraFields(tools []string) map[string]any {
	if len(tools) == 0 {
		return nil
	}
	return map[string]any{
		"compound_custom": map[string]any{
			"tools": map[string]any{"enabled_tools": tools},
		},
	}
}

func httpClient(cfg *Config) *http.Client {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		client = &copied
	}

	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = &headerTransport{
		base:   base,
		header: http.Header{ModelVersionHeader: []string{"latest"}},
	}
	return client
}

type headerTransport struct {
	base   http.RoundTripper
	header http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.header {
		req.Header[k] = v
	}
	return t.base.RoundTrip(req)
}
