package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// InviteTTL is how long a collaboration invite stays open before the
// TTL index deletes it.
const InviteTTL = 7 * 24 * time.Hour

// Invitation tracks a collaboration invite sent by email. The matching
// pending Collaborator entry lives embedded on the list; this document
// exists so invites can be looked up by invitee and expired via TTL.
type Invitation struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ListID       bson.ObjectID `bson:"list_id" json:"list_id"`
	InviterID    string        `bson:"inviter_id" json:"inviter_id"`
	InviteeEmail string        `bson:"invitee_email" json:"invitee_email"`
	Role         CollabRole    `bson:"role" json:"role"`
	Status       CollabStatus  `bson:"status" json:"status"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	ExpiresAt    time.Time     `bson:"expires_at" json:"expires_at"`
}
