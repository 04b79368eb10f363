package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Feedback is a message submitted through the feedback form.
// UserID is empty for anonymous submissions.
type Feedback struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string        `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Email     string        `bson:"email" json:"email"`
	Subject   string        `bson:"subject" json:"subject"`
	Message   string        `bson:"message" json:"message"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}
