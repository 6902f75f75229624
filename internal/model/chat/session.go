package chat

import "time"

// Session captures a transient anonymous conversation bound to a browser cookie.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
