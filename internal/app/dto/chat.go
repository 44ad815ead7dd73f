package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"gigchat/internal/domain/chat"
	"gigchat/internal/domain/offers"
)

// Event names on the bidirectional channel.
const (
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventNewMessage  = "new_message"
)

// Event is the envelope every frame on the websocket channel uses.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent wraps a payload into an envelope.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("dto: encode %s: %w", name, err)
	}
	return Event{Event: name, Data: data}, nil
}

// JoinRoom is the payload of a join_room event.
type JoinRoom struct {
	ConversationID string `json:"conversationId"`
}

// ChatMessage is the wire shape shared by send_message and new_message.
type ChatMessage struct {
	ID             string         `json:"id,omitempty"`
	ConversationID string         `json:"conversationId"`
	SenderID       string         `json:"senderId"`
	SenderRole     string         `json:"senderRole"`
	Kind           string         `json:"kind"`
	Body           string         `json:"body,omitempty"`
	MediaURL       string         `json:"mediaUrl,omitempty"`
	MediaMIMEType  string         `json:"mediaMimeType,omitempty"`
	OfferID        string         `json:"offerId,omitempty"`
	Offer          *OfferSnapshot `json:"offer,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// OfferSnapshot is the offer state embedded inside an OFFER message.
type OfferSnapshot struct {
	ID          string  `json:"id"`
	JobID       string  `json:"jobId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Timeline    string  `json:"timeline"`
	Budget      float64 `json:"budget"`
	Status      string  `json:"status"`
}

// ChatMessageFromDomain converts a domain message for the wire.
func ChatMessageFromDomain(m chat.Message) ChatMessage {
	wire := ChatMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     string(m.SenderRole),
		Kind:           string(m.Kind),
		Body:           m.Body,
		MediaURL:       m.MediaURL,
		MediaMIMEType:  m.MediaMIMEType,
		OfferID:        m.OfferID,
		Timestamp:      m.Timestamp,
	}
	if m.Offer != nil {
		wire.Offer = &OfferSnapshot{
			ID:          m.Offer.ID,
			JobID:       m.Offer.JobID,
			Name:        m.Offer.Name,
			Description: m.Offer.Description,
			Timeline:    string(m.Offer.Timeline),
			Budget:      m.Offer.Budget,
			Status:      m.Offer.Status,
		}
	}
	return wire
}

// ToDomain converts a wire message back into the domain model.
func (m ChatMessage) ToDomain() chat.Message {
	msg := chat.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     chat.Role(m.SenderRole),
		Kind:           chat.MessageKind(m.Kind),
		Body:           m.Body,
		MediaURL:       m.MediaURL,
		MediaMIMEType:  m.MediaMIMEType,
		OfferID:        m.OfferID,
		Timestamp:      m.Timestamp,
	}
	if m.Offer != nil {
		msg.Offer = &offers.Offer{
			ID:          m.Offer.ID,
			JobID:       m.Offer.JobID,
			Name:        m.Offer.Name,
			Description: m.Offer.Description,
			Timeline:    offers.Timeline(m.Offer.Timeline),
			Budget:      m.Offer.Budget,
			Status:      m.Offer.Status,
		}
	}
	return msg
}

// Conversation is the REST wire shape of a conversation descriptor.
type Conversation struct {
	ID           string    `json:"id"`
	JobID        string    `json:"jobId"`
	ClientID     string    `json:"clientId"`
	FreelancerID string    `json:"freelancerId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConversationFromDomain converts a domain conversation for the wire.
func ConversationFromDomain(c chat.Conversation) Conversation {
	return Conversation{
		ID:           c.ID,
		JobID:        c.JobID,
		ClientID:     c.ClientID,
		FreelancerID: c.FreelancerID,
		CreatedAt:    c.CreatedAt,
	}
}

// ChatMessageList is the message-history seed returned on mount.
type ChatMessageList struct {
	Items []ChatMessage `json:"items"`
}
