package ai_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/travel-tavern/backend/internal/config"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/ai"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/ai/aitest"
)

func newService(t *testing.T, fake *aitest.FakeChatModel, cfg config.AIConfig) *ai.Service {
	t.Helper()
	svc, err := ai.NewServiceWithModel(context.Background(), fake, cfg)
	require.NoError(t, err)
	return svc
}

func TestGenerateResponseGenericPrompt(t *testing.T) {
	fake := &aitest.FakeChatModel{Reply: "Hello!"}
	svc := newService(t, fake, config.AIConfig{})

	resp, err := svc.GenerateResponse(context.Background(), ai.Request{SessionID: "s1", UserMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Content)

	input := fake.LastInput()
	require.Len(t, input, 2)
	assert.Equal(t, schema.System, input[0].Role)
	assert.Equal(t, ai.BaseSystemPrompt, input[0].Content)
	assert.Equal(t, schema.User, input[1].Role)
	assert.Equal(t, "hi", input[1].Content)
}

func TestGenerateResponseKeepsLastTenHistoryMessages(t *testing.T) {
	fake := &aitest.FakeChatModel{Reply: "ok"}
	svc := newService(t, fake, config.AIConfig{HistoryLimit: 10})

	history := make([]chat.Message, 0, 14)
	for i := 0; i < 14; i++ {
		sender := chat.SenderUser
		if i%2 == 1 {
			sender = chat.SenderAssistant
		}
		history = append(history, chat.Message{Sender: sender, Content: fmt.Sprintf("m%d", i)})
	}

	_, err := svc.GenerateResponse(context.Background(), ai.Request{History: history, UserMessage: "{braces} stay literal"})
	require.NoError(t, err)

	input := fake.LastInput()
	require.Len(t, input, 12)
	assert.Equal(t, "m4", input[1].Content)
	assert.Equal(t, "m13", input[10].Content)
	assert.Equal(t, schema.Assistant, input[10].Role)
	assert.Equal(t, "{braces} stay literal", input[11].Content)
}

func TestGenerateResponsePersonalizedPrompt(t *testing.T) {
	fake := &aitest.FakeChatModel{Reply: "ok"}
	svc := newService(t, fake, config.AIConfig{})

	profile := &traveler.Profile{
		Name:             "Jane",
		PreferredSeasons: []string{"spring", "summer"},
		Activities:       []string{"Hiking", "Museums"},
		Budget:           "150000",
		Visited:          []string{"France", "Japan"},
	}
	_, err := svc.GenerateResponse(context.Background(), ai.Request{Profile: profile, Season: "Summer", UserMessage: "where should I go?"})
	require.NoError(t, err)

	system := fake.LastInput()[0].Content
	assert.Contains(t, system, "speaking directly to a user named Jane")
	assert.Contains(t, system, "**Current Season:** Summer")
	assert.Contains(t, system, "**Preferred Travel Seasons:** spring, summer")
	assert.Contains(t, system, "**Maximum Budget:** 150000 (INR)")
	assert.Contains(t, system, "    * Hiking\n    * Museums")
	assert.Contains(t, system, "**Countries Already Visited:** France, Japan")
	assert.Contains(t, system, "6. When suggesting a location")
}

func TestGenerateResponseWrapsModelError(t *testing.T) {
	boom := errors.New("boom")
	svc := newService(t, &aitest.FakeChatModel{Err: boom}, config.AIConfig{})

	_, err := svc.GenerateResponse(context.Background(), ai.Request{UserMessage: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), boom.Error())
}

func TestStreamResponse(t *testing.T) {
	fake := &aitest.FakeChatModel{Reply: "one two three"}

	disabled := newService(t, fake, config.AIConfig{StreamResponse: false})
	_, err := disabled.StreamResponse(context.Background(), ai.Request{UserMessage: "hi"})
	assert.ErrorIs(t, err, ai.ErrStreamingDisabled)

	svc := newService(t, fake, config.AIConfig{StreamResponse: true})
	stream, err := svc.StreamResponse(context.Background(), ai.Request{UserMessage: "hi"})
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
	assert.Equal(t, "one two three", b.String())
}
