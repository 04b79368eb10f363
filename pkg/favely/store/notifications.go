package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenopia/favely/pkg/favely/models"
)

// NotificationStore performs notification collection operations.
type NotificationStore struct {
	coll *mongo.Collection
}

// NewNotificationStore returns a NotificationStore using the provided
// collection.
func NewNotificationStore(coll *mongo.Collection) *NotificationStore {
	return &NotificationStore{coll: coll}
}

// Create inserts a notification.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now()

	result, err := s.coll.InsertOne(ctx, n)
	if err != nil {
		return mapWriteErr(err)
	}
	n.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// FindByUser returns the user's notifications, newest first, paginated.
func (s *NotificationStore) FindByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for the user.
func (s *NotificationStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks a single notification read. Scoped to the owning user so
// one user cannot touch another's notifications.
func (s *NotificationStore) MarkRead(ctx context.Context, id bson.ObjectID, userID string) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every notification for the user read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	return err
}

// Delete removes a notification, scoped to the owning user.
func (s *NotificationStore) Delete(ctx context.Context, id bson.ObjectID, userID string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
