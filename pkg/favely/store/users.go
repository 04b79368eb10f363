package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenopia/favely/pkg/favely/models"
)

// UserStore performs user collection operations.
type UserStore struct {
	coll *mongo.Collection
}

// NewUserStore returns a UserStore using the provided collection.
func NewUserStore(coll *mongo.Collection) *UserStore {
	return &UserStore{coll: coll}
}

// Create inserts a new user document and populates its ID.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		return mapWriteErr(err)
	}
	user.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// GetByAuthID returns the user with the given external auth id.
func (s *UserStore) GetByAuthID(ctx context.Context, authID string) (*models.User, error) {
	return s.getOne(ctx, bson.M{"auth_id": authID})
}

// GetByUsername returns the user with the given username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, bson.M{"username": username})
}

// GetByEmail returns the user with the given email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, bson.M{"email": email})
}

// GetByID returns the user with the given hex ObjectID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.getOne(ctx, bson.M{"_id": oid})
}

// GetByIDs batch-fetches users for the given hex ObjectIDs in one query.
// Unparseable ids are skipped; missing users are simply absent from the
// result.
func (s *UserStore) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return []models.User{}, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByAuthIDs batch-fetches users for the given auth ids in one query.
func (s *UserStore) GetByAuthIDs(ctx context.Context, authIDs []string) ([]models.User, error) {
	if len(authIDs) == 0 {
		return []models.User{}, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"auth_id": bson.M{"$in": authIDs}})
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Search returns users whose username or display name matches the query
// prefix, case-insensitively.
func (s *UserStore) Search(ctx context.Context, query string, limit int64) ([]models.User, error) {
	filter := bson.M{"$or": []bson.M{
		{"username": bson.M{"$regex": "^" + query, "$options": "i"}},
		{"display_name": bson.M{"$regex": "^" + query, "$options": "i"}},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies a $set update to the user with the given auth id.
func (s *UserStore) Update(ctx context.Context, authID string, set bson.M) error {
	set["updated_at"] = time.Now()
	result, err := s.coll.UpdateOne(ctx, bson.M{"auth_id": authID}, bson.M{"$set": set})
	if err != nil {
		return mapWriteErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncListCount atomically adjusts the cached list counter.
func (s *UserStore) IncListCount(ctx context.Context, authID string, delta int64) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"auth_id": authID},
		bson.M{"$inc": bson.M{"list_count": delta}})
	return err
}

// IncFollowerCount atomically adjusts the cached follower counter.
func (s *UserStore) IncFollowerCount(ctx context.Context, authID string, delta int64) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"auth_id": authID},
		bson.M{"$inc": bson.M{"followers_count": delta}})
	return err
}

// IncFollowingCount atomically adjusts the cached following counter.
func (s *UserStore) IncFollowingCount(ctx context.Context, authID string, delta int64) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"auth_id": authID},
		bson.M{"$inc": bson.M{"following_count": delta}})
	return err
}

// UsernameTaken checks whether a username is already in use.
func (s *UserStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *UserStore) getOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapReadErr(err)
	}
	return &user, nil
}
