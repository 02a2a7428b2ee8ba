package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository stores per (user, session) conversation history.
// Implementations refresh the thread's last-access time on every call.
type ConversationRepository interface {
	// AddMessage appends a message to the conversation, creating the thread
	// when absent.
	AddMessage(ctx context.Context, userID, sessionID string, message *schema.Message) error

	// LoadHistory retrieves the ordered conversation history.
	LoadHistory(ctx context.Context, userID, sessionID string) (*ConversationHistory, error)

	// ClearHistory removes the conversation.
	ClearHistory(ctx context.Context, userID, sessionID string) error

	// MessageCount returns the number of stored messages.
	MessageCount(ctx context.Context, userID, sessionID string) (int, error)
}

// ConversationHistory represents loaded conversation data with its key.
type ConversationHistory struct {
	UserID    string
	SessionID string
	Messages  []*schema.Message
}
