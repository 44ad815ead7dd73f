package chat

import (
	"context"
	"time"
)

// Conversation scopes a back-and-forth between two parties tied to one
// job. Its id is immutable for the lifetime of any channel opened on it;
// this core never deletes conversations.
type Conversation struct {
	ID           string
	JobID        string
	ClientID     string
	FreelancerID string
	CreatedAt    time.Time
}

// Participants returns both user ids.
func (c Conversation) Participants() []string {
	return []string{c.ClientID, c.FreelancerID}
}

// HasParticipant reports whether the user belongs to the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return userID == c.ClientID || userID == c.FreelancerID
}

// ConversationRepository persists conversation descriptors.
type ConversationRepository interface {
	// GetOrCreate returns the existing conversation for the job/party pair
	// or creates one on first contact.
	GetOrCreate(ctx context.Context, jobID, clientID, freelancerID string) (*Conversation, error)
	ByID(ctx context.Context, id string) (*Conversation, error)
}

// MessageRepository stores the ordered, append-only log per conversation.
type MessageRepository interface {
	Append(ctx context.Context, msg *Message) error
	// ListByConversation returns messages in append order.
	ListByConversation(ctx context.Context, conversationID string) ([]*Message, error)
}
