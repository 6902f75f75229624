// Package aitest provides a scripted chat model for tests.
package aitest

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel answers every call with Reply (or Err) and records inputs.
type FakeChatModel struct {
	Reply string
	Err   error

	mu     sync.Mutex
	inputs [][]*schema.Message
}

var _ model.BaseChatModel = (*FakeChatModel)(nil)

func (f *FakeChatModel) record(input []*schema.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
}

// Generate returns Reply as a single assistant message.
func (f *FakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.record(input)
	if f.Err != nil {
		return nil, f.Err
	}
	return schema.AssistantMessage(f.Reply, nil), nil
}

// Stream returns Reply split on spaces, keeping the separators.
func (f *FakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.record(input)
	if f.Err != nil {
		return nil, f.Err
	}

	parts := strings.SplitAfter(f.Reply, " ")
	chunks := make([]*schema.Message, 0, len(parts))
	for _, p := range parts {
		chunks = append(chunks, schema.AssistantMessage(p, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

// Calls returns how many times the model was invoked.
func (f *FakeChatModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// LastInput returns the messages of the most recent call.
func (f *FakeChatModel) LastInput() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[len(f.inputs)-1]
}
