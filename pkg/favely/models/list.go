package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Privacy controls who can view a list
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyPrivate  Privacy = "private"
	PrivacyUnlisted Privacy = "unlisted"
)

// Valid reports whether p is a known privacy level
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate, PrivacyUnlisted:
		return true
	}
	return false
}

// Category classifies what kind of things a list ranks
type Category string

const (
	CategoryMovies      Category = "movies"
	CategoryBooks       Category = "books"
	CategoryRestaurants Category = "restaurants"
	CategoryMusic       Category = "music"
	CategoryGames       Category = "games"
	CategoryTravel      Category = "travel"
	CategoryOther       Category = "other"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryMovies, CategoryBooks, CategoryRestaurants,
		CategoryMusic, CategoryGames, CategoryTravel, CategoryOther:
		return true
	}
	return false
}

// CollabRole represents a collaborator's role on a list
type CollabRole string

const (
	CollabRoleOwner  CollabRole = "owner"
	CollabRoleAdmin  CollabRole = "admin"
	CollabRoleEditor CollabRole = "editor"
	CollabRoleViewer CollabRole = "viewer"
)

// CanEdit reports whether the role allows modifying list content
func (r CollabRole) CanEdit() bool {
	return r == CollabRoleOwner || r == CollabRoleAdmin || r == CollabRoleEditor
}

// CollabStatus represents the state of a collaboration invite
type CollabStatus string

const (
	CollabStatusPending  CollabStatus = "pending"
	CollabStatusAccepted CollabStatus = "accepted"
	CollabStatusRejected CollabStatus = "rejected"
)

// ItemProperty is an extra labelled value on a list item (e.g. year, location)
type ItemProperty struct {
	Type  string `bson:"type" json:"type"`
	Label string `bson:"label" json:"label"`
	Value string `bson:"value" json:"value"`
}

// ListItem is a single ranked entry embedded in a list document.
// Ranks are unique within a list and define display order.
type ListItem struct {
	Title      string         `bson:"title" json:"title"`
	Comment    string         `bson:"comment,omitempty" json:"comment,omitempty"`
	Rank       int            `bson:"rank" json:"rank"`
	Properties []ItemProperty `bson:"properties,omitempty" json:"properties,omitempty"`
}

// ListOwner is the denormalized owner reference embedded in a list.
// Username is a fallback for display when the profile record is missing.
type ListOwner struct {
	UserID   string `bson:"user_id" json:"user_id"`
	AuthID   string `bson:"auth_id" json:"auth_id"`
	Username string `bson:"username" json:"username"`
}

// Collaborator is a user invited to work on a list. Entries are keyed by
// email at invite time; AuthID is filled in when the invite is accepted.
// The owner is never duplicated here - ownership is implicit full access.
type Collaborator struct {
	AuthID     string       `bson:"auth_id,omitempty" json:"auth_id,omitempty"`
	Email      string       `bson:"email" json:"email,omitempty"`
	Role       CollabRole   `bson:"role" json:"role"`
	Status     CollabStatus `bson:"status" json:"status"`
	InvitedAt  time.Time    `bson:"invited_at" json:"invited_at"`
	AcceptedAt *time.Time   `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
}

// RedactEmails copies a roster with the invitee emails cleared. Responses
// served to viewers without manage rights use this so invite addresses
// never leave the manage surface.
func RedactEmails(collabs []Collaborator) []Collaborator {
	out := make([]Collaborator, len(collabs))
	for i, c := range collabs {
		c.Email = ""
		out[i] = c
	}
	return out
}

// ListStats holds engagement counters, mutated only via atomic increments
type ListStats struct {
	ViewCount int64 `bson:"view_count" json:"view_count"`
	PinCount  int64 `bson:"pin_count" json:"pin_count"`
	CopyCount int64 `bson:"copy_count" json:"copy_count"`
}

// List represents a ranked list of items
type List struct {
	ID            bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title         string         `bson:"title" json:"title"`
	Description   string         `bson:"description,omitempty" json:"description,omitempty"`
	Category      Category       `bson:"category" json:"category"`
	Privacy       Privacy        `bson:"privacy" json:"privacy"`
	Items         []ListItem     `bson:"items" json:"items"`
	Owner         ListOwner      `bson:"owner" json:"owner"`
	Collaborators []Collaborator `bson:"collaborators,omitempty" json:"collaborators,omitempty"`
	Stats         ListStats      `bson:"stats" json:"stats"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updated_at"`
	LastEditedAt  time.Time      `bson:"last_edited_at" json:"last_edited_at"`
}
