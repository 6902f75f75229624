// Package travel answers chat messages the way the travel assistant does:
// it recognises known travelers by name, personalises the model prompt from
// their preference profile and short-circuits when the current season is one
// they do not travel in.
package travel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	analysis "github.com/zhouzirui/travel-tavern/backend/internal/analysis/traveler"
	"github.com/zhouzirui/travel-tavern/backend/internal/metrics"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
	aiService "github.com/zhouzirui/travel-tavern/backend/internal/service/ai"
	chatService "github.com/zhouzirui/travel-tavern/backend/internal/service/chat"
)

var (
	ErrAssistantUnavailable = errors.New("assistant not initialized")
	ErrEmptyMessage         = errors.New("message is required")
)

// Reply kinds, also used as metric labels.
const (
	KindGeneric        = "generic"
	KindPersonalized   = "personalized"
	KindSeasonMismatch = "season_mismatch"
)

// Reply is the assistant's answer to one message.
type Reply struct {
	Content  string
	Kind     string
	Traveler string
	Season   string
}

// Concierge orchestrates one chat turn.
type Concierge struct {
	ai        *aiService.Service
	chat      *chatService.Service
	travelers traveler.Store
	now       func() time.Time
}

// Option customises a Concierge.
type Option func(*Concierge)

// WithClock overrides the clock used to pick the current season.
func WithClock(now func() time.Time) Option {
	return func(c *Concierge) { c.now = now }
}

// New creates a Concierge. aiSvc may be nil, in which case every reply fails
// with ErrAssistantUnavailable.
func New(aiSvc *aiService.Service, chatSvc *chatService.Service, travelers traveler.Store, opts ...Option) *Concierge {
	c := &Concierge{
		ai:        aiSvc,
		chat:      chatSvc,
		travelers: travelers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether a model is configured.
func (c *Concierge) Available() bool {
	return c != nil && c.ai != nil
}

// plan is everything decided before the model is called.
type plan struct {
	request  aiService.Request
	reply    Reply
	shortcut bool
}

func (c *Concierge) prepare(ctx context.Context, sessionID, message string) (plan, error) {
	if !c.Available() {
		return plan{}, ErrAssistantUnavailable
	}
	if strings.TrimSpace(message) == "" {
		return plan{}, ErrEmptyMessage
	}

	history, err := c.chat.LoadTranscript(ctx, sessionID)
	if err != nil {
		return plan{}, fmt.Errorf("load transcript: %w", err)
	}

	p := plan{
		request: aiService.Request{SessionID: sessionID, History: history, UserMessage: message},
		reply:   Reply{Kind: KindGeneric},
	}

	name, ok := analysis.ExtractName(message)
	if !ok {
		log.Printf("[travel] generic prompt for session=%s", sessionID)
		return p, nil
	}

	season := string(analysis.SeasonOf(c.now()))
	profile, found := c.travelers.FindByName(name)
	if !found {
		log.Printf("[travel] no profile found for traveler=%s, using generic prompt", name)
		return p, nil
	}

	p.reply.Traveler = name
	p.reply.Season = season

	if !profile.Prefers(season) {
		log.Printf("[travel] traveler=%s does not travel in %s (seasons=%v)", name, season, profile.PreferredSeasons)
		p.reply.Kind = KindSeasonMismatch
		p.reply.Content = fmt.Sprintf("According to my data, %s doesn't like to travel in the %s.", name, season)
		p.shortcut = true
		return p, nil
	}

	log.Printf("[travel] personalized prompt for traveler=%s session=%s", name, sessionID)
	p.reply.Kind = KindPersonalized
	p.request.Profile = &profile
	p.request.Season = season
	return p, nil
}

// Reply answers message within the session and records the turn.
func (c *Concierge) Reply(ctx context.Context, sessionID, message string) (Reply, error) {
	p, err := c.prepare(ctx, sessionID, message)
	if err != nil {
		return Reply{}, c.fail(err)
	}

	if !p.shortcut {
		start := time.Now()
		response, err := c.ai.GenerateResponse(ctx, p.request)
		metrics.ObserveModelLatency(time.Since(start), err)
		if err != nil {
			return Reply{}, c.fail(err)
		}
		p.reply.Content = response.Content
	}

	return c.finish(ctx, sessionID, message, p.reply)
}

// ReplyStream behaves like Reply but reports content pieces through emit as
// they arrive. Season mismatches are emitted as a single piece.
func (c *Concierge) ReplyStream(ctx context.Context, sessionID, message string, emit func(delta string)) (Reply, error) {
	p, err := c.prepare(ctx, sessionID, message)
	if err != nil {
		return Reply{}, c.fail(err)
	}

	switch {
	case p.shortcut:
		emit(p.reply.Content)
	case !c.ai.StreamingEnabled():
		start := time.Now()
		response, err := c.ai.GenerateResponse(ctx, p.request)
		metrics.ObserveModelLatency(time.Since(start), err)
		if err != nil {
			return Reply{}, c.fail(err)
		}
		p.reply.Content = response.Content
		emit(response.Content)
	default:
		start := time.Now()
		content, err := c.consumeStream(ctx, p.request, emit)
		metrics.ObserveModelLatency(time.Since(start), err)
		if err != nil {
			return Reply{}, c.fail(err)
		}
		p.reply.Content = content
	}

	return c.finish(ctx, sessionID, message, p.reply)
}

func (c *Concierge) consumeStream(ctx context.Context, req aiService.Request, emit func(string)) (string, error) {
	stream, err := c.ai.StreamResponse(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			emit(chunk.Content)
		}
	}

	if len(chunks) == 0 {
		return "", nil
	}
	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

func (c *Concierge) finish(ctx context.Context, sessionID, message string, reply Reply) (Reply, error) {
	if err := c.chat.SaveTurn(ctx, sessionID, message, reply.Content); err != nil {
		log.Printf("[travel] failed to save turn for session=%s: %v", sessionID, err)
	}
	metrics.CountReply(reply.Kind)
	return reply, nil
}

func (c *Concierge) fail(err error) error {
	metrics.CountReply("error")
	return err
}
