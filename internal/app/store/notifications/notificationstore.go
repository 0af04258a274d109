package notificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

var ErrNotFound = errors.New("notification not found")

// Read filters for ListForUser.
const (
	StatusAll    = "all"
	StatusRead   = "read"
	StatusUnread = "unread"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Insert stores n as unread.
func (s *Store) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.Read = false
	n.ReadAt = nil
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// InsertOnce writes n unless a notification with the same type, sender and
// metadata.jobId already exists. Returns true if a document was written.
func (s *Store) InsertOnce(ctx context.Context, n models.Notification) (bool, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.Read = false
	filter := bson.M{
		"type":       n.Type,
		"fromUserId": n.FromUserID,
		"toUserId":   n.ToUserID,
	}
	if jobID, ok := n.Metadata["jobId"]; ok {
		filter["metadata.jobId"] = jobID
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$setOnInsert": n}, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

func userFilter(userID, status string) bson.M {
	f := bson.M{"toUserId": userID}
	switch status {
	case StatusRead:
		f["read"] = true
	case StatusUnread:
		f["read"] = false
	}
	return f
}

// ListForUser returns the user's notifications, unread first and newest
// first within each group.
func (s *Store) ListForUser(ctx context.Context, userID, status string) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "read", Value: 1}, {Key: "createdAt", Value: -1}})
	cur, err := s.c.Find(ctx, userFilter(userID, status), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Page is one page of a user's notifications.
type Page struct {
	Items       []models.Notification
	Total       int64
	UnreadCount int64
}

// PageForUser returns a newest-first page. The page, its total and the
// unread count are fetched in parallel.
func (s *Store) PageForUser(ctx context.Context, userID string, unreadOnly bool, p paging.Page) (Page, error) {
	status := StatusAll
	if unreadOnly {
		status = StatusUnread
	}
	filter := userFilter(userID, status)

	var out Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(p.Skip()).
			SetLimit(p.Limit64())
		cur, err := s.c.Find(gctx, filter, opts)
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		items := []models.Notification{}
		if err := cur.All(gctx, &items); err != nil {
			return err
		}
		out.Items = items
		return nil
	})
	g.Go(func() error {
		n, err := s.c.CountDocuments(gctx, filter)
		out.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.c.CountDocuments(gctx, userFilter(userID, StatusUnread))
		out.UnreadCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}
	return out, nil
}

// SetRead sets the read flag. readAt is stamped when read and cleared when
// toggled back to unread.
func (s *Store) SetRead(ctx context.Context, id primitive.ObjectID, read bool) (*models.Notification, error) {
	update := bson.M{"$set": bson.M{"read": read, "readAt": time.Now().UTC()}}
	if !read {
		update = bson.M{"$set": bson.M{"read": false}, "$unset": bson.M{"readAt": ""}}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n models.Notification
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// DeleteForUser removes notifications sent to or from userID.
func (s *Store) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"toUserId": userID},
		bson.M{"fromUserId": userID},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
