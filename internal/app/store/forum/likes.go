package forumstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// itemCollection returns the collection holding items of itemType and the
// filter that pins the item to that type.
func (s *Store) itemCollection(itemType string, id primitive.ObjectID) (*mongo.Collection, bson.M, error) {
	switch itemType {
	case models.ItemThread:
		return s.threads, bson.M{"_id": id}, nil
	case models.ItemPost:
		return s.posts, bson.M{"_id": id, "parent": nil}, nil
	case models.ItemReply:
		return s.posts, bson.M{"_id": id, "parent": bson.M{"$ne": nil}}, nil
	default:
		return nil, nil, ErrBadItemType
	}
}

// Like records userID's like on the item. The unique index on likes is the
// only duplicate check: a duplicate key means ErrAlreadyLiked.
func (s *Store) Like(ctx context.Context, userID, itemType string, itemID primitive.ObjectID) (int, error) {
	coll, filter, err := s.itemCollection(itemType, itemID)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		_, err := s.likes.InsertOne(ctx, models.Like{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			ItemID:    itemID,
			ItemType:  itemType,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			if wafflemongo.IsDup(err) {
				return ErrAlreadyLiked
			}
			return err
		}
		n, err := s.bump(ctx, coll, filter, userID, 1)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if errors.Is(err, ErrNotFound) && (s.tx == nil || !s.tx.Supported()) {
		// Without a transaction the like row outlived the missing item.
		_, _ = s.likes.DeleteOne(ctx, bson.M{"userID": userID, "itemId": itemID, "itemType": itemType})
	}
	return count, err
}

// Unlike removes userID's like on the item.
func (s *Store) Unlike(ctx context.Context, userID, itemType string, itemID primitive.ObjectID) (int, error) {
	coll, filter, err := s.itemCollection(itemType, itemID)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		res, err := s.likes.DeleteOne(ctx, bson.M{"userID": userID, "itemId": itemID, "itemType": itemType})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotLiked
		}
		n, err := s.bump(ctx, coll, filter, userID, -1)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	return count, err
}

// bump pushes or pulls userID on the item's likes and adjusts likesCount.
// Returns the new count.
func (s *Store) bump(ctx context.Context, coll *mongo.Collection, filter bson.M, userID string, delta int) (int, error) {
	update := bson.M{"$inc": bson.M{"likesCount": delta}}
	if delta > 0 {
		update["$push"] = bson.M{"likes": userID}
	} else {
		update["$pull"] = bson.M{"likes": userID}
	}
	var out struct {
		LikesCount int `bson:"likesCount"`
	}
	err := coll.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	return out.LikesCount, err
}

// HasLiked reports whether userID likes the item.
func (s *Store) HasLiked(ctx context.Context, userID, itemType string, itemID primitive.ObjectID) (bool, error) {
	if _, _, err := s.itemCollection(itemType, itemID); err != nil {
		return false, err
	}
	err := s.likes.FindOne(ctx, bson.M{"userID": userID, "itemId": itemID, "itemType": itemType}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// RemoveUserLikes undoes every like by userID. Used when an account is
// deleted.
func (s *Store) RemoveUserLikes(ctx context.Context, userID string) (int, error) {
	cur, err := s.likes.Find(ctx, bson.M{"userID": userID})
	if err != nil {
		return 0, err
	}
	var likes []models.Like
	if err := cur.All(ctx, &likes); err != nil {
		return 0, err
	}
	removed := 0
	for _, l := range likes {
		if _, err := s.Unlike(ctx, userID, l.ItemType, l.ItemID); err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotLiked) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
