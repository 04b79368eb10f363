package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Preferences holds per-user settings
type Preferences struct {
	ApproveFollowers   bool `bson:"approve_followers" json:"approve_followers"`
	EmailNotifications bool `bson:"email_notifications" json:"email_notifications"`
	PrivateProfile     bool `bson:"private_profile" json:"private_profile"`
}

// User is the local shadow of an identity held by the external auth
// provider. AuthID is the provider's subject and the canonical identity key;
// the counters are caches maintained alongside follow/list writes.
type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthID         string        `bson:"auth_id" json:"auth_id"`
	Username       string        `bson:"username" json:"username"`
	DisplayName    string        `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Email          string        `bson:"email" json:"email"`
	PasswordHash   string        `bson:"password_hash,omitempty" json:"-"` // Only set for local (non-SSO) accounts
	Preferences    Preferences   `bson:"preferences" json:"preferences"`
	FollowersCount int64         `bson:"followers_count" json:"followers_count"`
	FollowingCount int64         `bson:"following_count" json:"following_count"`
	ListCount      int64         `bson:"list_count" json:"list_count"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}
