package models

import "time"

// Message is one turn of a chat conversation as sent by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRecord is one completed question/answer pair persisted to the chat
// history store. Writes are best-effort; a failed insert never fails the
// chat turn.
type ChatRecord struct {
	UserID     string    `bson:"user_id"`
	Timestamp  time.Time `bson:"timestamp"`
	Message    string    `bson:"message"`
	Response   string    `bson:"response"`
	DocumentID string    `bson:"document_id,omitempty"`
}
