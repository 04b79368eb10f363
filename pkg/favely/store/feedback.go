package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/zenopia/favely/pkg/favely/models"
)

// FeedbackStore performs feedback collection operations.
type FeedbackStore struct {
	coll *mongo.Collection
}

// NewFeedbackStore returns a FeedbackStore using the provided collection.
func NewFeedbackStore(coll *mongo.Collection) *FeedbackStore {
	return &FeedbackStore{coll: coll}
}

// Create inserts a feedback document.
func (s *FeedbackStore) Create(ctx context.Context, fb *models.Feedback) error {
	fb.CreatedAt = time.Now()

	result, err := s.coll.InsertOne(ctx, fb)
	if err != nil {
		return mapWriteErr(err)
	}
	fb.ID = result.InsertedID.(bson.ObjectID)
	return nil
}
