package chat

import "time"

// Message senders stored in a transcript.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message persists individual turns of a conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
