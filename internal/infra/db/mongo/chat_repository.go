package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "gigchat/internal/domain/chat"
	domainoffers "gigchat/internal/domain/offers"
)

// ConversationRepository persists conversation descriptors.
type ConversationRepository struct {
	col *mongo.Collection
}

// NewConversationRepository binds the repository to its collection.
func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{col: db.Collection("conversations")}
}

type conversationDocument struct {
	ID           string    `bson:"_id"`
	JobID        string    `bson:"job_id"`
	ClientID     string    `bson:"client_id"`
	FreelancerID string    `bson:"freelancer_id"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d conversationDocument) toDomain() *domainchat.Conversation {
	return &domainchat.Conversation{
		ID:           d.ID,
		JobID:        d.JobID,
		ClientID:     d.ClientID,
		FreelancerID: d.FreelancerID,
		CreatedAt:    d.CreatedAt,
	}
}

// GetOrCreate upserts the thread for a job/party pair atomically, so
// concurrent first contacts resolve to one conversation.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, jobID, clientID, freelancerID string) (*domainchat.Conversation, error) {
	filter := bson.M{"job_id": jobID, "client_id": clientID, "freelancer_id": freelancerID}
	update := bson.M{"$setOnInsert": conversationDocument{
		ID:           uuid.NewString(),
		JobID:        jobID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		CreatedAt:    time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc conversationDocument
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// ByID returns a conversation or chat.ErrConversationNotFound.
func (r *ConversationRepository) ByID(ctx context.Context, id string) (*domainchat.Conversation, error) {
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// MessageRepository persists the ordered per-conversation message log.
type MessageRepository struct {
	col *mongo.Collection
}

// NewMessageRepository binds the repository to its collection.
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection("messages")}
}

type offerSnapshotDocument struct {
	ID          string  `bson:"id"`
	JobID       string  `bson:"job_id,omitempty"`
	Name        string  `bson:"name"`
	Description string  `bson:"description,omitempty"`
	Timeline    string  `bson:"timeline"`
	Budget      float64 `bson:"budget"`
	Status      string  `bson:"status"`
}

type messageDocument struct {
	ID             string                 `bson:"_id"`
	ConversationID string                 `bson:"conversation_id"`
	SenderID       string                 `bson:"sender_id"`
	SenderRole     string                 `bson:"sender_role"`
	Kind           string                 `bson:"kind"`
	Body           string                 `bson:"body,omitempty"`
	MediaURL       string                 `bson:"media_url,omitempty"`
	MediaMIMEType  string                 `bson:"media_mime_type,omitempty"`
	OfferID        string                 `bson:"offer_id,omitempty"`
	Offer          *offerSnapshotDocument `bson:"offer,omitempty"`
	Timestamp      time.Time              `bson:"timestamp"`
	Seq            int64                  `bson:"seq"`
}

func newMessageDocument(msg *domainchat.Message, seq int64) messageDocument {
	doc := messageDocument{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderRole:     string(msg.SenderRole),
		Kind:           string(msg.Kind),
		Body:           msg.Body,
		MediaURL:       msg.MediaURL,
		MediaMIMEType:  msg.MediaMIMEType,
		OfferID:        msg.OfferID,
		Timestamp:      msg.Timestamp,
		Seq:            seq,
	}
	if msg.Offer != nil {
		doc.Offer = &offerSnapshotDocument{
			ID:          msg.Offer.ID,
			JobID:       msg.Offer.JobID,
			Name:        msg.Offer.Name,
			Description: msg.Offer.Description,
			Timeline:    string(msg.Offer.Timeline),
			Budget:      msg.Offer.Budget,
			Status:      msg.Offer.Status,
		}
	}
	return doc
}

func (d messageDocument) toDomain() *domainchat.Message {
	msg := &domainchat.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		SenderID:       d.SenderID,
		SenderRole:     domainchat.Role(d.SenderRole),
		Kind:           domainchat.MessageKind(d.Kind),
		Body:           d.Body,
		MediaURL:       d.MediaURL,
		MediaMIMEType:  d.MediaMIMEType,
		OfferID:        d.OfferID,
		Timestamp:      d.Timestamp,
	}
	if d.Offer != nil {
		msg.Offer = &domainoffers.Offer{
			ID:          d.Offer.ID,
			JobID:       d.Offer.JobID,
			Name:        d.Offer.Name,
			Description: d.Offer.Description,
			Timeline:    domainoffers.Timeline(d.Offer.Timeline),
			Budget:      d.Offer.Budget,
			Status:      d.Offer.Status,
		}
	}
	return msg
}

// Append inserts the message with a monotonic per-insert sequence so
// listing preserves append order even for equal timestamps.
func (r *MessageRepository) Append(ctx context.Context, msg *domainchat.Message) error {
	doc := newMessageDocument(msg, time.Now().UTC().UnixNano())
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// ListByConversation returns the log in append order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domainchat.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainchat.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}
