package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainoffers "gigchat/internal/domain/offers"
)

// OfferRepository persists canonical offer records.
type OfferRepository struct {
	col *mongo.Collection
}

// NewOfferRepository binds the repository to its collection.
func NewOfferRepository(db *mongo.Database) *OfferRepository {
	return &OfferRepository{col: db.Collection("offers")}
}

type offerDocument struct {
	ID          string  `bson:"_id"`
	JobID       string  `bson:"job_id,omitempty"`
	Name        string  `bson:"name"`
	Description string  `bson:"description"`
	Timeline    string  `bson:"timeline"`
	Budget      float64 `bson:"budget"`
	Status      string  `bson:"status"`
}

// ByID returns an offer or offers.ErrOfferNotFound.
func (r *OfferRepository) ByID(ctx context.Context, id string) (*domainoffers.Offer, error) {
	var doc offerDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainoffers.ErrOfferNotFound
		}
		return nil, err
	}
	return &domainoffers.Offer{
		ID:          doc.ID,
		JobID:       doc.JobID,
		Name:        doc.Name,
		Description: doc.Description,
		Timeline:    domainoffers.Timeline(doc.Timeline),
		Budget:      doc.Budget,
		Status:      doc.Status,
	}, nil
}

// Save upserts an offer record. Revisions replace the document in place;
// history lives in the message log, not here.
func (r *OfferRepository) Save(ctx context.Context, offer *domainoffers.Offer) error {
	doc := offerDocument{
		ID:          offer.ID,
		JobID:       offer.JobID,
		Name:        offer.Name,
		Description: offer.Description,
		Timeline:    string(offer.Timeline),
		Budget:      offer.Budget,
		Status:      offer.Status,
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}
