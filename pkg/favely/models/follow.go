package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FollowStatus represents the state of a follow relationship
type FollowStatus string

const (
	FollowStatusPending  FollowStatus = "pending"
	FollowStatusAccepted FollowStatus = "accepted"
	FollowStatusRejected FollowStatus = "rejected"
)

// Follow is a directed follow relationship between two users, unique per
// (follower, following) pair. Only accepted follows count toward the
// follower/following counters cached on the user documents.
type Follow struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FollowerID  string        `bson:"follower_id" json:"follower_id"`
	FollowingID string        `bson:"following_id" json:"following_id"`
	Status      FollowStatus  `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	RespondedAt *time.Time    `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}
