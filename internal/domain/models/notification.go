package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types written by the server.
const (
	NotificationJobApplication = "job_application"
)

// Notification is a message addressed to ToUserID.
type Notification struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Type       string             `bson:"type" json:"type"`
	FromUserID string             `bson:"fromUserId,omitempty" json:"fromUserId,omitempty"`
	ToUserID   string             `bson:"toUserId" json:"toUserId"`
	SenderType string             `bson:"senderType,omitempty" json:"senderType,omitempty"`
	Message    string             `bson:"message" json:"message"`
	Metadata   map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Read       bool               `bson:"read" json:"read"`
	ReadAt     *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
