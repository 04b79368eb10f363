package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenopia/favely/pkg/favely/models"
)

// ListStore performs list collection operations.
type ListStore struct {
	coll *mongo.Collection
}

// NewListStore returns a ListStore using the provided collection.
func NewListStore(coll *mongo.Collection) *ListStore {
	return &ListStore{coll: coll}
}

// Create inserts a new list document and populates its ID.
func (s *ListStore) Create(ctx context.Context, list *models.List) error {
	now := time.Now()
	list.CreatedAt = now
	list.UpdatedAt = now
	list.LastEditedAt = now
	if list.Items == nil {
		list.Items = []models.ListItem{}
	}

	result, err := s.coll.InsertOne(ctx, list)
	if err != nil {
		return mapWriteErr(err)
	}
	list.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// GetByID returns a single list by its ObjectID.
func (s *ListStore) GetByID(ctx context.Context, id bson.ObjectID) (*models.List, error) {
	var list models.List
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&list)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return &list, nil
}

// UpdateMeta applies a metadata update ($set fields) and bumps the edit
// timestamps.
func (s *ListStore) UpdateMeta(ctx context.Context, id bson.ObjectID, set bson.M) error {
	now := time.Now()
	set["updated_at"] = now
	set["last_edited_at"] = now

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a list document.
func (s *ListStore) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindForUser returns lists the user owns or collaborates on (accepted
// invites only), newest first.
func (s *ListStore) FindForUser(ctx context.Context, userID, authID string) ([]models.List, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner.user_id": userID},
		{"collaborators": bson.M{"$elemMatch": bson.M{
			"auth_id": authID,
			"status":  models.CollabStatusAccepted,
		}}},
	}}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
}

// FindByOwner returns all lists owned by the user, newest first.
func (s *ListStore) FindByOwner(ctx context.Context, userID string) ([]models.List, error) {
	return s.find(ctx, bson.M{"owner.user_id": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
}

// FindPublic returns public lists, optionally filtered by category and a
// title/description text match, paginated newest first.
func (s *ListStore) FindPublic(ctx context.Context, category models.Category, search string, skip, limit int64) ([]models.List, error) {
	filter := bson.M{"privacy": models.PrivacyPublic}
	if category != "" {
		filter["category"] = category
	}
	if search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": search, "$options": "i"}},
			{"description": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// FindByIDs returns the lists matching the given ids.
func (s *ListStore) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.List, error) {
	if len(ids) == 0 {
		return []models.List{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

// SetItems replaces the embedded items array and bumps last_edited_at.
func (s *ListStore) SetItems(ctx context.Context, id bson.ObjectID, items []models.ListItem) error {
	return s.UpdateMeta(ctx, id, bson.M{"items": items})
}

// UpdateItemFields patches fields of the item with the given rank in place
// using an array filter.
func (s *ListStore) UpdateItemFields(ctx context.Context, id bson.ObjectID, rank int, fields bson.M) error {
	now := time.Now()
	set := bson.M{
		"updated_at":     now,
		"last_edited_at": now,
	}
	for k, v := range fields {
		set["items.$[it]."+k] = v
	}

	opts := options.UpdateOne().SetArrayFilters([]interface{}{bson.M{"it.rank": rank}})
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts)
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	if result.ModifiedCount == 0 {
		// List matched but no item carried that rank
		return ErrNotFound
	}
	return nil
}

// AddCollaborator appends a collaborator entry to the list.
func (s *ListStore) AddCollaborator(ctx context.Context, id bson.ObjectID, collab models.Collaborator) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"collaborators": collab},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCollaboratorStatus resolves the pending entry matching the invitee
// email, recording the responder's auth id and acceptance time.
func (s *ListStore) SetCollaboratorStatus(ctx context.Context, id bson.ObjectID, email string, status models.CollabStatus, authID string) error {
	now := time.Now()
	set := bson.M{
		"collaborators.$[c].status":  status,
		"collaborators.$[c].auth_id": authID,
		"updated_at":                 now,
	}
	if status == models.CollabStatusAccepted {
		set["collaborators.$[c].accepted_at"] = now
	}

	opts := options.UpdateOne().SetArrayFilters([]interface{}{bson.M{
		"c.email":  email,
		"c.status": models.CollabStatusPending,
	}})
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts)
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 || result.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCollaboratorRole changes an accepted collaborator's role.
func (s *ListStore) SetCollaboratorRole(ctx context.Context, id bson.ObjectID, authID string, role models.CollabRole) error {
	opts := options.UpdateOne().SetArrayFilters([]interface{}{bson.M{"c.auth_id": authID}})
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"collaborators.$[c].role": role,
			"updated_at":              time.Now(),
		},
	}, opts)
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 || result.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveCollaborator pulls the entry with the given auth id.
func (s *ListStore) RemoveCollaborator(ctx context.Context, id bson.ObjectID, authID string) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"collaborators": bson.M{"auth_id": authID}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	if result.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveCollaboratorByEmail pulls a pending entry that has no auth id yet.
func (s *ListStore) RemoveCollaboratorByEmail(ctx context.Context, id bson.ObjectID, email string) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"collaborators": bson.M{"email": email}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 || result.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncViewCount atomically bumps the view counter. It does not touch
// updated_at: views are not edits.
func (s *ListStore) IncViewCount(ctx context.Context, id bson.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stats.view_count": 1}})
	return err
}

// IncPinCount atomically adjusts the pin counter. Decrements only apply
// while the counter is above zero so it can never go negative.
func (s *ListStore) IncPinCount(ctx context.Context, id bson.ObjectID, delta int64) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stats.pin_count"] = bson.M{"$gt": 0}
	}
	_, err := s.coll.UpdateOne(ctx, filter,
		bson.M{"$inc": bson.M{"stats.pin_count": delta}})
	return err
}

// IncCopyCount atomically bumps the copy counter.
func (s *ListStore) IncCopyCount(ctx context.Context, id bson.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stats.copy_count": 1}})
	return err
}

func (s *ListStore) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.List, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	lists := []models.List{}
	if err := cursor.All(ctx, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}
