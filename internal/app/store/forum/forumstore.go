// Package forumstore owns writes to threads, posts and likes. Every write
// that touches more than one document runs through txn.Runner.
package forumstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/htmlsanitize"
	"github.com/dalemusser/kinshealth/internal/app/system/txn"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("forum item not found")
	ErrForbidden    = errors.New("not the author of this item")
	ErrAlreadyLiked = errors.New("item already liked")
	ErrNotLiked     = errors.New("item not liked")
	ErrBadItemType  = errors.New("unknown item type")
	ErrEmptyContent = errors.New("content is required")
)

type Store struct {
	threads *mongo.Collection
	posts   *mongo.Collection
	likes   *mongo.Collection
	tx      *txn.Runner
}

// New binds the store to db. tx may be nil, in which case multi-document
// writes run sequentially.
func New(db *mongo.Database, tx *txn.Runner) *Store {
	return &Store{
		threads: db.Collection("threads"),
		posts:   db.Collection("posts"),
		likes:   db.Collection("likes"),
		tx:      tx,
	}
}

var mentionRe = regexp.MustCompile(`@(\w+)`)

// Mentions returns the distinct @handles in content, in order of first use.
func Mentions(content string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range mentionRe.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// ThreadInput is the writable part of a thread.
type ThreadInput struct {
	Title      string
	Content    string
	Categories []string
	Tags       []string
	ImageURL   string
}

// CreateThread stores a new open thread owned by creator.
func (s *Store) CreateThread(ctx context.Context, creator string, in ThreadInput) (models.Thread, error) {
	now := time.Now().UTC()
	th := models.Thread{
		ID:         primitive.NewObjectID(),
		Title:      htmlsanitize.StripTags(in.Title),
		Content:    htmlsanitize.Sanitize(in.Content),
		Creator:    creator,
		Categories: htmlsanitize.StripAll(in.Categories),
		Tags:       htmlsanitize.StripAll(in.Tags),
		Status:     models.ThreadStatusOpen,
		ImageURL:   in.ImageURL,
		Posts:      []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if th.Content == "" {
		return models.Thread{}, ErrEmptyContent
	}
	if _, err := s.threads.InsertOne(ctx, th); err != nil {
		return models.Thread{}, err
	}
	return th, nil
}

// GetThread loads a thread by id.
func (s *Store) GetThread(ctx context.Context, id primitive.ObjectID) (*models.Thread, error) {
	var th models.Thread
	if err := s.threads.FindOne(ctx, bson.M{"_id": id}).Decode(&th); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &th, nil
}

// IncViews bumps the thread's view counter.
func (s *Store) IncViews(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.threads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ThreadUpdate holds optional thread edits.
type ThreadUpdate struct {
	Title      *string
	Content    *string
	Categories []string
	Tags       []string
	ImageURL   *string
}

// UpdateThread applies upd when requester created the thread.
func (s *Store) UpdateThread(ctx context.Context, id primitive.ObjectID, requester string, upd ThreadUpdate) (*models.Thread, error) {
	th, err := s.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if th.Creator != requester {
		return nil, ErrForbidden
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = htmlsanitize.StripTags(*upd.Title)
	}
	if upd.Content != nil {
		c := htmlsanitize.Sanitize(*upd.Content)
		if c == "" {
			return nil, ErrEmptyContent
		}
		set["content"] = c
	}
	if upd.Categories != nil {
		set["categories"] = htmlsanitize.StripAll(upd.Categories)
	}
	if upd.Tags != nil {
		set["tags"] = htmlsanitize.StripAll(upd.Tags)
	}
	if upd.ImageURL != nil {
		set["imageUrl"] = *upd.ImageURL
	}
	if _, err := s.threads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return nil, err
	}
	return s.GetThread(ctx, id)
}

// DeleteThread removes a thread owned by requester with all of its posts,
// replies and likes.
func (s *Store) DeleteThread(ctx context.Context, id primitive.ObjectID, requester string) error {
	th, err := s.GetThread(ctx, id)
	if err != nil {
		return err
	}
	if th.Creator != requester {
		return ErrForbidden
	}
	return s.deleteThread(ctx, id)
}

// DeleteThreadAny is DeleteThread without the ownership check.
func (s *Store) DeleteThreadAny(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.GetThread(ctx, id); err != nil {
		return err
	}
	return s.deleteThread(ctx, id)
}

func (s *Store) deleteThread(ctx context.Context, id primitive.ObjectID) error {
	return s.tx.Run(ctx, func(ctx context.Context) error {
		postIDs, err := s.distinctIDs(ctx, bson.M{"threadId": id})
		if err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if _, err := s.likes.DeleteMany(ctx, bson.M{"itemId": bson.M{"$in": postIDs}}); err != nil {
				return err
			}
			if _, err := s.posts.DeleteMany(ctx, bson.M{"threadId": id}); err != nil {
				return err
			}
		}
		if _, err := s.likes.DeleteMany(ctx, bson.M{"itemId": id, "itemType": models.ItemThread}); err != nil {
			return err
		}
		_, err = s.threads.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
}

func (s *Store) distinctIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	raw, err := s.posts.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if oid, ok := v.(primitive.ObjectID); ok {
			out = append(out, oid)
		}
	}
	return out, nil
}

// GetPost loads a post or reply by id.
func (s *Store) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func newPost(threadID primitive.ObjectID, parent *primitive.ObjectID, author, content string) (models.Post, error) {
	clean := htmlsanitize.Sanitize(content)
	if clean == "" {
		return models.Post{}, ErrEmptyContent
	}
	now := time.Now().UTC()
	return models.Post{
		ID:        primitive.NewObjectID(),
		ThreadID:  threadID,
		Author:    author,
		Content:   clean,
		Parent:    parent,
		Children:  []primitive.ObjectID{},
		Mentions:  Mentions(content),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CreatePost adds a top-level post to threadID. The insert, the thread's
// posts push, its replies counter and updatedAt change together.
func (s *Store) CreatePost(ctx context.Context, threadID primitive.ObjectID, author, content string) (models.Post, error) {
	p, err := newPost(threadID, nil, author, content)
	if err != nil {
		return models.Post{}, err
	}
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		res, err := s.threads.UpdateOne(ctx, bson.M{"_id": threadID}, bson.M{
			"$push": bson.M{"posts": p.ID},
			"$inc":  bson.M{"replies": 1},
			"$set":  bson.M{"updatedAt": p.CreatedAt},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		_, err = s.posts.InsertOne(ctx, p)
		return err
	})
	if err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// CreateReply adds a reply under parentID.
func (s *Store) CreateReply(ctx context.Context, parentID primitive.ObjectID, author, content string) (models.Post, error) {
	parent, err := s.GetPost(ctx, parentID)
	if err != nil {
		return models.Post{}, err
	}
	r, err := newPost(parent.ThreadID, &parent.ID, author, content)
	if err != nil {
		return models.Post{}, err
	}
	err = s.tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.posts.InsertOne(ctx, r); err != nil {
			return err
		}
		if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": parent.ID}, bson.M{
			"$push": bson.M{"children": r.ID},
			"$inc":  bson.M{"replies": 1},
			"$set":  bson.M{"updatedAt": r.CreatedAt},
		}); err != nil {
			return err
		}
		_, err := s.threads.UpdateOne(ctx, bson.M{"_id": parent.ThreadID}, bson.M{
			"$inc": bson.M{"replies": 1},
			"$set": bson.M{"updatedAt": r.CreatedAt},
		})
		return err
	})
	if err != nil {
		return models.Post{}, err
	}
	return r, nil
}

// UpdatePost replaces the content of a post (reply=false) or reply
// (reply=true) authored by requester.
func (s *Store) UpdatePost(ctx context.Context, id primitive.ObjectID, requester, content string, reply bool) (*models.Post, error) {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsReply() != reply {
		return nil, ErrNotFound
	}
	if p.Author != requester {
		return nil, ErrForbidden
	}
	clean := htmlsanitize.Sanitize(content)
	if clean == "" {
		return nil, ErrEmptyContent
	}
	set := bson.M{"content": clean, "mentions": Mentions(content), "updatedAt": time.Now().UTC()}
	if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a top-level post and its replies, unlinks it from the
// thread and lowers the thread's replies counter by everything removed.
func (s *Store) DeletePost(ctx context.Context, id primitive.ObjectID, requester string) error {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.IsReply() {
		return ErrNotFound
	}
	if p.Author != requester {
		return ErrForbidden
	}
	return s.tx.Run(ctx, func(ctx context.Context) error {
		replyIDs, err := s.distinctIDs(ctx, bson.M{"parent": id})
		if err != nil {
			return err
		}
		gone := append([]primitive.ObjectID{id}, replyIDs...)
		if _, err := s.likes.DeleteMany(ctx, bson.M{"itemId": bson.M{"$in": gone}}); err != nil {
			return err
		}
		if _, err := s.posts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": gone}}); err != nil {
			return err
		}
		_, err = s.threads.UpdateOne(ctx, bson.M{"_id": p.ThreadID}, bson.M{
			"$pull": bson.M{"posts": id},
			"$inc":  bson.M{"replies": -len(gone)},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
		return err
	})
}

// DeleteReply removes a reply, unlinks it from its parent and decrements
// the parent's and the thread's counters.
func (s *Store) DeleteReply(ctx context.Context, id primitive.ObjectID, requester string) error {
	r, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !r.IsReply() {
		return ErrNotFound
	}
	if r.Author != requester {
		return ErrForbidden
	}
	return s.tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.likes.DeleteMany(ctx, bson.M{"itemId": id}); err != nil {
			return err
		}
		if _, err := s.posts.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return err
		}
		if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": *r.Parent}, bson.M{
			"$pull": bson.M{"children": id},
			"$inc":  bson.M{"replies": -1},
		}); err != nil {
			return err
		}
		_, err := s.threads.UpdateOne(ctx, bson.M{"_id": r.ThreadID}, bson.M{"$inc": bson.M{"replies": -1}})
		return err
	})
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)
