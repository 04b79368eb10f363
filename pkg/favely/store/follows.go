package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenopia/favely/pkg/favely/models"
)

// FollowStore performs follow collection operations.
type FollowStore struct {
	coll *mongo.Collection
}

// NewFollowStore returns a FollowStore using the provided collection.
func NewFollowStore(coll *mongo.Collection) *FollowStore {
	return &FollowStore{coll: coll}
}

// Create inserts a follow. The unique (follower_id, following_id) index
// turns a double-follow into ErrDuplicate.
func (s *FollowStore) Create(ctx context.Context, follow *models.Follow) error {
	follow.CreatedAt = time.Now()

	result, err := s.coll.InsertOne(ctx, follow)
	if err != nil {
		return mapWriteErr(err)
	}
	follow.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// Get returns the follow from follower to following, in any status.
func (s *FollowStore) Get(ctx context.Context, followerID, followingID string) (*models.Follow, error) {
	var follow models.Follow
	err := s.coll.FindOne(ctx, bson.M{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Decode(&follow)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return &follow, nil
}

// GetByID returns a follow by its ObjectID.
func (s *FollowStore) GetByID(ctx context.Context, id bson.ObjectID) (*models.Follow, error) {
	var follow models.Follow
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&follow); err != nil {
		return nil, mapReadErr(err)
	}
	return &follow, nil
}

// SetStatus transitions a pending follow to accepted or rejected.
// Only pending follows transition; anything else is ErrNotFound.
func (s *FollowStore) SetStatus(ctx context.Context, id bson.ObjectID, status models.FollowStatus) error {
	now := time.Now()
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.FollowStatusPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": now}})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the follow from follower to following.
func (s *FollowStore) Delete(ctx context.Context, followerID, followingID string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{
		"follower_id":  followerID,
		"following_id": followingID,
	})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Followers returns accepted follows targeting the user, newest first.
func (s *FollowStore) Followers(ctx context.Context, userID string) ([]models.Follow, error) {
	return s.find(ctx, bson.M{"following_id": userID, "status": models.FollowStatusAccepted})
}

// Following returns the user's accepted outgoing follows, newest first.
func (s *FollowStore) Following(ctx context.Context, userID string) ([]models.Follow, error) {
	return s.find(ctx, bson.M{"follower_id": userID, "status": models.FollowStatusAccepted})
}

// PendingFor returns incoming follow requests awaiting the user's response.
func (s *FollowStore) PendingFor(ctx context.Context, userID string) ([]models.Follow, error) {
	return s.find(ctx, bson.M{"following_id": userID, "status": models.FollowStatusPending})
}

// IsAccepted reports whether follower has an accepted follow on following.
func (s *FollowStore) IsAccepted(ctx context.Context, followerID, followingID string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"follower_id":  followerID,
		"following_id": followingID,
		"status":       models.FollowStatusAccepted,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *FollowStore) find(ctx context.Context, filter bson.M) ([]models.Follow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	follows := []models.Follow{}
	if err := cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	return follows, nil
}
