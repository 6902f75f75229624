package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/travel-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSender   = errors.New("sender must be user or assistant")
)

// Service encapsulates conversation state management.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService wraps a transcript backend.
func NewService(backend store.Store) *Service {
	return &Service{
		store: backend,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession provisions an anonymous session.
func (s *Service) CreateSession(ctx context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return chat.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(ctx context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}
	if message.Sender != chat.SenderUser && message.Sender != chat.SenderAssistant {
		return ErrInvalidSender
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	}

	return s.mapErr(s.store.AppendMessage(ctx, message))
}

// SaveTurn stores a user message followed by the assistant reply.
func (s *Service) SaveTurn(ctx context.Context, sessionID, userMessage, reply string) error {
	if err := s.SaveMessage(ctx, chat.Message{SessionID: sessionID, Sender: chat.SenderUser, Content: userMessage}); err != nil {
		return err
	}
	return s.SaveMessage(ctx, chat.Message{SessionID: sessionID, Sender: chat.SenderAssistant, Content: reply})
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, s.mapErr(err)
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	messages, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return messages, nil
}

// ResetTranscript drops the stored messages but keeps the session.
func (s *Service) ResetTranscript(ctx context.Context, sessionID string) error {
	return s.mapErr(s.store.ClearMessages(ctx, sessionID))
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}
