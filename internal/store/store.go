// Package store persists chat sessions and their transcripts.
package store

import (
	"context"
	"errors"

	"github.com/zhouzirui/travel-tavern/backend/internal/model/chat"
)

// ErrNotFound is returned when a session does not exist (or has expired).
var ErrNotFound = errors.New("session not found")

// Store is implemented by every transcript backend.
type Store interface {
	CreateSession(ctx context.Context, session chat.Session) error
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	AppendMessage(ctx context.Context, message chat.Message) error
	ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error)
	ClearMessages(ctx context.Context, sessionID string) error
	Close() error
}
