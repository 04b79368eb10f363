package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenopia/favely/pkg/favely/models"
)

// PinStore performs pin collection operations.
type PinStore struct {
	coll *mongo.Collection
}

// NewPinStore returns a PinStore using the provided collection.
func NewPinStore(coll *mongo.Collection) *PinStore {
	return &PinStore{coll: coll}
}

// Create inserts a pin. The unique (user_id, list_id) index turns a
// double-pin into ErrDuplicate rather than a second document.
func (s *PinStore) Create(ctx context.Context, pin *models.Pin) error {
	now := time.Now()
	pin.CreatedAt = now
	pin.LastViewedAt = now

	result, err := s.coll.InsertOne(ctx, pin)
	if err != nil {
		return mapWriteErr(err)
	}
	pin.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// Get returns the pin for the given user and list.
func (s *PinStore) Get(ctx context.Context, userID string, listID bson.ObjectID) (*models.Pin, error) {
	var pin models.Pin
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID, "list_id": listID}).Decode(&pin)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return &pin, nil
}

// Delete removes the pin for the given user and list. Returns ErrNotFound
// when the list was never pinned.
func (s *PinStore) Delete(ctx context.Context, userID string, listID bson.ObjectID) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"user_id": userID, "list_id": listID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByUser returns the user's pins, most recently pinned first.
func (s *PinStore) FindByUser(ctx context.Context, userID string) ([]models.Pin, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	pins := []models.Pin{}
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

// ViewedAt returns a listID -> lastViewedAt map for the user's pins on the
// given lists, fetched in one query.
func (s *PinStore) ViewedAt(ctx context.Context, userID string, listIDs []bson.ObjectID) (map[bson.ObjectID]time.Time, error) {
	viewed := map[bson.ObjectID]time.Time{}
	if len(listIDs) == 0 {
		return viewed, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{
		"user_id": userID,
		"list_id": bson.M{"$in": listIDs},
	})
	if err != nil {
		return nil, err
	}
	var pins []models.Pin
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	for _, p := range pins {
		viewed[p.ListID] = p.LastViewedAt
	}
	return viewed, nil
}

// TouchViewed records that the user just viewed the pinned list. A no-op
// when no pin exists.
func (s *PinStore) TouchViewed(ctx context.Context, userID string, listID bson.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "list_id": listID},
		bson.M{"$set": bson.M{"last_viewed_at": time.Now()}})
	return err
}

// DeleteByList removes all pins for a deleted list.
func (s *PinStore) DeleteByList(ctx context.Context, listID bson.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"list_id": listID})
	return err
}
