package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store records broker message ids this consumer group has already
// processed. A rebalance or restart replays uncommitted offsets; the
// unique index keeps a replayed message from reaching rooms twice.
type Store struct {
	col      *mongo.Collection
	consumer string
}

// NewStore opens the inbox collection for one consumer group.
func NewStore(db *mongo.Database, consumer string) *Store {
	col := db.Collection("relay_inbox")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "consumer", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &Store{col: col, consumer: consumer}
}

// Seen marks the message id processed and reports whether it already was.
func (s *Store) Seen(ctx context.Context, messageID string) (bool, error) {
	doc := bson.M{
		"message_id":  messageID,
		"consumer":    s.consumer,
		"received_at": time.Now().UTC(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return false, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	return false, err
}
