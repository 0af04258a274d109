// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAccount = "account"
	CategoryAdmin   = "admin"
)

// Account event types
const (
	EventAccountCreated = "account_created"
	EventAccountDeleted = "account_deleted"
)

// Admin event types
const (
	EventRoleChanged     = "role_changed"
	EventCompleteChanged = "complete_changed"
	EventUserDeleted     = "user_deleted"
	EventJobDraftChanged = "job_draft_changed"
	EventJobDeleted      = "job_deleted"
	EventThreadDeleted   = "thread_deleted"
)

// ActorAdminKey marks actions taken with the X-Admin-Key header rather than
// as a signed-in user.
const ActorAdminKey = "admin-key"

// Event is one row of the audit trail. UserID and Actor hold external
// userIDs, not Mongo ids.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	UserID   string `bson:"user_id,omitempty" json:"userID,omitempty"`
	Actor    string `bson:"actor" json:"actor"`
	TargetID string `bson:"target_id,omitempty" json:"targetId,omitempty"`

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	Success       bool              `bson:"success" json:"success"`
	FailureReason string            `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`
	Details       map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query and Count. Zero values match everything.
type QueryFilter struct {
	UserID    string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		t := bson.M{}
		if f.StartTime != nil {
			t["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			t["$lte"] = *f.EndTime
		}
		q["timestamp"] = t
	}
	return q
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns how many events match the filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// DeleteOlderThan prunes events before cutoff and reports how many went.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
