package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trial states stored on a contact.
const (
	TrialActive  = "active"
	TrialExpired = "expired"
)

// Contact is the billing/CRM record for an email address. Stripe webhook
// events locate it by CustomerID.
type Contact struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	UserID       string             `bson:"userID,omitempty" json:"userID,omitempty"`
	Role         string             `bson:"role,omitempty" json:"role,omitempty"`
	CustomerID   string             `bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	Subscribed   bool               `bson:"subscribed" json:"subscribed"`
	Trial        string             `bson:"trial,omitempty" json:"trial,omitempty"`
	TrialEndDate *time.Time         `bson:"trial_end_date,omitempty" json:"trial_end_date,omitempty"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
