package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/travel-tavern/backend/internal/config"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
)

const defaultHistoryLimit = 10

// ErrStreamingDisabled is returned by StreamResponse when LLM_STREAM is off.
var ErrStreamingDisabled = errors.New("streaming disabled in configuration")

// Request is one model invocation. Profile is nil for generic conversations.
type Request struct {
	SessionID   string
	Profile     *traveler.Profile
	Season      string
	History     []chat.Message
	UserMessage string
}

// Service encapsulates AI-powered chat functionality
type Service struct {
	chatModel    model.BaseChatModel
	cfg          config.AIConfig
	chain        compose.Runnable[map[string]any, *schema.Message]
	prompts      *PromptBuilder
	historyLimit int
}

// NewService creates a new AI service instance from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg)
}

// NewServiceWithModel builds the prompt chain around an existing model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	return &Service{
		chatModel:    chatModel,
		cfg:          cfg,
		chain:        runnable,
		prompts:      NewPromptBuilder(),
		historyLimit: limit,
	}, nil
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GenerateResponse runs the chain once and returns the full reply.
func (s *Service) GenerateResponse(ctx context.Context, req Request) (*schema.Message, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated response for session=%s, personalized=%t, length=%d", req.SessionID, req.Profile != nil, len(response.Content))
	return response, nil
}

// StreamResponse streams AI response chunks via the configured chain.
func (s *Service) StreamResponse(ctx context.Context, req Request) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, ErrStreamingDisabled
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}

// SystemPrompt exposes the prompt a request would be sent with.
func (s *Service) SystemPrompt(req Request) string {
	return s.prompts.BuildSystemPrompt(req.Profile, req.Season)
}

func (s *Service) buildChainInput(req Request) map[string]any {
	return map[string]any{
		"system":  s.SystemPrompt(req),
		"history": s.buildHistoryMessages(req.History),
		"query":   req.UserMessage,
	}
}

// buildHistoryMessages keeps the most recent messages; older turns are
// dropped to stay under the provider's request size limit.
func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > s.historyLimit {
		startIdx = len(messages) - s.historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
