package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenopia/favely/pkg/favely/models"
)

// InviteStore performs invitation collection operations.
type InviteStore struct {
	coll *mongo.Collection
}

// NewInviteStore returns an InviteStore using the provided collection.
func NewInviteStore(coll *mongo.Collection) *InviteStore {
	return &InviteStore{coll: coll}
}

// Create inserts an invitation with the standard 7-day expiry.
func (s *InviteStore) Create(ctx context.Context, invite *models.Invitation) error {
	now := time.Now()
	invite.CreatedAt = now
	invite.ExpiresAt = now.Add(models.InviteTTL)
	invite.Status = models.CollabStatusPending

	result, err := s.coll.InsertOne(ctx, invite)
	if err != nil {
		return mapWriteErr(err)
	}
	invite.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// GetPending returns the open invitation for the email on the given list.
func (s *InviteStore) GetPending(ctx context.Context, listID bson.ObjectID, email string) (*models.Invitation, error) {
	var invite models.Invitation
	err := s.coll.FindOne(ctx, bson.M{
		"list_id":       listID,
		"invitee_email": email,
		"status":        models.CollabStatusPending,
	}).Decode(&invite)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return &invite, nil
}

// FindPendingByEmail returns the open invitations addressed to the email,
// newest first.
func (s *InviteStore) FindPendingByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{
		"invitee_email": email,
		"status":        models.CollabStatusPending,
	}, opts)
	if err != nil {
		return nil, err
	}
	invites := []models.Invitation{}
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// SetStatus records the invitee's response on a pending invitation.
func (s *InviteStore) SetStatus(ctx context.Context, id bson.ObjectID, status models.CollabStatus) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.CollabStatusPending},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByList removes all invitations for a deleted list.
func (s *InviteStore) DeleteByList(ctx context.Context, listID bson.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"list_id": listID})
	return err
}
