package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gigchat/internal/domain/chat"
	"gigchat/internal/domain/offers"
)

// ConversationRepository is an in-memory implementation for single-node
// deployments and tests.
type ConversationRepository struct {
	mu    sync.RWMutex
	items map[string]*chat.Conversation
	// byKey indexes job+participants so first contact is get-or-create.
	byKey map[string]string
}

// NewConversationRepository builds an empty repository.
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		items: make(map[string]*chat.Conversation),
		byKey: make(map[string]string),
	}
}

func conversationKey(jobID, clientID, freelancerID string) string {
	return jobID + "|" + clientID + "|" + freelancerID
}

// GetOrCreate returns the existing thread for the job/party pair or
// creates it on first contact.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, jobID, clientID, freelancerID string) (*chat.Conversation, error) {
	key := conversationKey(jobID, clientID, freelancerID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[key]; ok {
		return cloneConversation(r.items[id]), nil
	}
	conv := &chat.Conversation{
		ID:           uuid.NewString(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		CreatedAt:    time.Now().UTC(),
	}
	r.items[conv.ID] = conv
	r.byKey[key] = conv.ID
	return cloneConversation(conv), nil
}

// ByID returns a conversation or chat.ErrConversationNotFound.
func (r *ConversationRepository) ByID(ctx context.Context, id string) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.items[id]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func cloneConversation(c *chat.Conversation) *chat.Conversation {
	clone := *c
	return &clone
}

// MessageRepository keeps per-conversation logs in append order.
type MessageRepository struct {
	mu   sync.RWMutex
	logs map[string][]chat.Message
}

// NewMessageRepository builds an empty repository.
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{logs: make(map[string][]chat.Message)}
}

// Append adds a message at the end of its conversation log.
func (r *MessageRepository) Append(ctx context.Context, msg *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *msg
	if stored.Offer != nil {
		snapshot := *stored.Offer
		stored.Offer = &snapshot
	}
	r.logs[msg.ConversationID] = append(r.logs[msg.ConversationID], stored)
	return nil
}

// ListByConversation returns the log in append order. An unknown
// conversation yields an empty, displayable log.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	log := r.logs[conversationID]
	out := make([]*chat.Message, 0, len(log))
	for i := range log {
		msg := log[i]
		if msg.Offer != nil {
			snapshot := *msg.Offer
			msg.Offer = &snapshot
		}
		out = append(out, &msg)
	}
	return out, nil
}

// OfferRepository stores offers keyed by id.
type OfferRepository struct {
	mu    sync.RWMutex
	items map[string]*offers.Offer
}

// NewOfferRepository builds an empty repository.
func NewOfferRepository() *OfferRepository {
	return &OfferRepository{items: make(map[string]*offers.Offer)}
}

// ByID returns an offer or offers.ErrOfferNotFound.
func (r *OfferRepository) ByID(ctx context.Context, id string) (*offers.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	offer, ok := r.items[id]
	if !ok {
		return nil, offers.ErrOfferNotFound
	}
	clone := *offer
	return &clone, nil
}

// Save stores or replaces an offer record.
func (r *OfferRepository) Save(ctx context.Context, offer *offers.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *offer
	r.items[offer.ID] = &clone
	return nil
}
