package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotificationType identifies what triggered a notification
type NotificationType string

const (
	NotificationFollowRequest  NotificationType = "follow_request"
	NotificationFollowAccepted NotificationType = "follow_accepted"
	NotificationNewFollower    NotificationType = "new_follower"
	NotificationCollabInvite   NotificationType = "collab_invite"
	NotificationCollabAccepted NotificationType = "collab_accepted"
)

// Notification is an in-app notification for a user
type Notification struct {
	ID        bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID    string           `bson:"user_id" json:"user_id"`
	Type      NotificationType `bson:"type" json:"type"`
	ActorID   string           `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	ListID    *bson.ObjectID   `bson:"list_id,omitempty" json:"list_id,omitempty"`
	Message   string           `bson:"message" json:"message"`
	Read      bool             `bson:"read" json:"read"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
}
