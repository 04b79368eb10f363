// Package database manages the MongoDB connection and collection handles.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names
const (
	CollLists         = "lists"
	CollUsers         = "users"
	CollFollows       = "follows"
	CollPins          = "pins"
	CollInvitations   = "invitations"
	CollNotifications = "notifications"
	CollFeedback      = "feedback"
)

// DB wraps the mongo client and database handle. It is constructed once in
// main, injected into the stores, and closed on shutdown.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DB{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Collection returns a handle to the named collection.
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Close disconnects from MongoDB.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the application relies on:
// uniqueness for usernames, auth ids, pin pairs and follow pairs, the TTL
// expiry on open invitations, and the query indexes for list browsing.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "auth_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := d.Collection(CollUsers).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	listIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner.user_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "privacy", Value: 1}, {Key: "category", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "collaborators.auth_id", Value: 1}}},
	}
	if _, err := d.Collection(CollLists).Indexes().CreateMany(ctx, listIndexes); err != nil {
		return fmt.Errorf("failed to create list indexes: %w", err)
	}

	// Unique pair index is what makes pinning idempotent under races
	pinIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "list_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := d.Collection(CollPins).Indexes().CreateOne(ctx, pinIndex); err != nil {
		return fmt.Errorf("failed to create pin index: %w", err)
	}

	followIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "follower_id", Value: 1}, {Key: "following_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "following_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := d.Collection(CollFollows).Indexes().CreateMany(ctx, followIndexes); err != nil {
		return fmt.Errorf("failed to create follow indexes: %w", err)
	}

	// Open invites are deleted by MongoDB once expires_at passes
	inviteIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{Keys: bson.D{{Key: "invitee_email", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := d.Collection(CollInvitations).Indexes().CreateMany(ctx, inviteIndexes); err != nil {
		return fmt.Errorf("failed to create invitation indexes: %w", err)
	}

	notifIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	}
	if _, err := d.Collection(CollNotifications).Indexes().CreateOne(ctx, notifIndex); err != nil {
		return fmt.Errorf("failed to create notification index: %w", err)
	}

	return nil
}
