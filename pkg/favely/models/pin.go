package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Pin marks a list as saved by a user, unique per (user, list) pair.
// Existence implies "pinned"; LastViewedAt drives the has-update badge.
type Pin struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string        `bson:"user_id" json:"user_id"`
	ListID       bson.ObjectID `bson:"list_id" json:"list_id"`
	LastViewedAt time.Time     `bson:"last_viewed_at" json:"last_viewed_at"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
}
