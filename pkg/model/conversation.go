package model

import (
	"time"

	"github.com/google/uuid"
)

type ConversationID string

// NewConversationID issues a fresh conversation identifier.
func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

func (x ConversationID) String() string {
	return string(x)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single exchange entry in a conversation.
type Turn struct {
	Role    Role   `firestore:"role" json:"role"`
	Content string `firestore:"content" json:"content"`
}

// Conversation is a persisted chat thread.
type Conversation struct {
	ID        ConversationID `firestore:"id" json:"id"`
	Title     string         `firestore:"title" json:"title"`
	Turns     []Turn         `firestore:"turns" json:"turns"`
	CreatedAt time.Time      `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time      `firestore:"updated_at" json:"updated_at"`
}
