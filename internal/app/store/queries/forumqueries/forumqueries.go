// Package forumqueries provides the read-side forum listings: faceted
// thread pages with author lookup, posts of a thread and replies of a post.
package forumqueries

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("thread not found")

// ThreadView is a thread with its creator resolved. Creator is nil when
// the user no longer exists.
type ThreadView struct {
	models.Thread `bson:",inline"`
	CreatorInfo   *models.Author `bson:"creatorInfo" json:"creatorInfo"`
}

// PostView is a post or reply with its author resolved.
type PostView struct {
	models.Post `bson:",inline"`
	AuthorInfo  *models.Author `bson:"authorInfo" json:"authorInfo"`
}

// Sort selects the thread ordering.
type Sort struct {
	By      string // one of the sortable fields; default createdAt
	Order   string // asc | desc; default desc
	Replies string // most | least; overrides By/Order
}

var sortable = map[string]bool{
	"createdAt":  true,
	"updatedAt":  true,
	"views":      true,
	"replies":    true,
	"likesCount": true,
}

// Stage returns the $sort document. _id breaks ties so pages are stable.
func (s Sort) Stage() bson.D {
	switch strings.ToLower(s.Replies) {
	case "most":
		return bson.D{{Key: "replies", Value: -1}, {Key: "_id", Value: -1}}
	case "least":
		return bson.D{{Key: "replies", Value: 1}, {Key: "_id", Value: 1}}
	}
	field := "createdAt"
	if sortable[s.By] {
		field = s.By
	}
	dir := -1
	if strings.ToLower(s.Order) == "asc" {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// ThreadFilter narrows the thread listing. Categories and tags are any-of.
type ThreadFilter struct {
	Categories []string
	Tags       []string
}

func (f ThreadFilter) active() bool { return len(f.Categories) > 0 || len(f.Tags) > 0 }

func (f ThreadFilter) match() bson.M {
	m := bson.M{}
	if len(f.Categories) > 0 {
		m["categories"] = bson.M{"$in": f.Categories}
	}
	if len(f.Tags) > 0 {
		m["tags"] = bson.M{"$in": f.Tags}
	}
	return m
}

// ThreadPage is one page of threads.
type ThreadPage struct {
	Threads []ThreadView
	Meta    paging.Meta
	// Fallback is true when the filter matched nothing and the page was
	// produced without it.
	Fallback bool
}

// authorLookup joins users on userID into as, keeping only display fields.
func authorLookup(localField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   localField,
			"foreignField": "userID",
			"as":           as,
			"pipeline": bson.A{
				bson.M{"$project": bson.M{
					"_id": 0, "userID": 1, "fname": 1, "lname": 1, "name": 1,
					"profileImage": 1, "role": 1, "complete": 1,
				}},
				bson.M{"$limit": 1},
			},
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$" + as, "preserveNullAndEmptyArrays": true}}},
	}
}

// facetPipeline is match → sort → facet(total, page with author lookup).
func facetPipeline(match bson.M, sort bson.D, p paging.Page, localField, as string) mongo.Pipeline {
	data := bson.A{}
	for _, st := range paging.SkipLimit(p) {
		data = append(data, st)
	}
	for _, st := range authorLookup(localField, as) {
		data = append(data, st)
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$facet", Value: bson.D{
			{Key: "metadata", Value: bson.A{bson.D{{Key: "$count", Value: "total"}}}},
			{Key: "data", Value: data},
		}}},
	}
}

// ListThreads returns one page of threads. A filter that matches nothing is
// retried without it and the result is marked Fallback.
func ListThreads(ctx context.Context, db *mongo.Database, f ThreadFilter, s Sort, p paging.Page) (ThreadPage, error) {
	threads, total, err := listThreads(ctx, db, f.match(), s, p)
	if err != nil {
		return ThreadPage{}, err
	}
	fallback := false
	if total == 0 && f.active() {
		threads, total, err = listThreads(ctx, db, bson.M{}, s, p)
		if err != nil {
			return ThreadPage{}, err
		}
		fallback = true
	}
	return ThreadPage{Threads: threads, Meta: paging.NewMeta(p, total), Fallback: fallback}, nil
}

func listThreads(ctx context.Context, db *mongo.Database, match bson.M, s Sort, p paging.Page) ([]ThreadView, int64, error) {
	cur, err := db.Collection("threads").Aggregate(ctx, facetPipeline(match, s.Stage(), p, "creator", "creatorInfo"))
	if err != nil {
		return nil, 0, err
	}
	return paging.DecodeFacet[ThreadView](ctx, cur)
}

// GetThread loads a thread with its creator.
func GetThread(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*ThreadView, error) {
	pipe := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipe = append(pipe, authorLookup("creator", "creatorInfo")...)
	cur, err := db.Collection("threads").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []ThreadView
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

var oldestFirst = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

// ListPosts returns the top-level posts of a thread, oldest first.
func ListPosts(ctx context.Context, db *mongo.Database, threadID primitive.ObjectID, p paging.Page) ([]PostView, paging.Meta, error) {
	match := bson.M{"threadId": threadID, "parent": nil}
	cur, err := db.Collection("posts").Aggregate(ctx, facetPipeline(match, oldestFirst, p, "author", "authorInfo"))
	if err != nil {
		return nil, paging.Meta{}, err
	}
	posts, total, err := paging.DecodeFacet[PostView](ctx, cur)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return posts, paging.NewMeta(p, total), nil
}

// ListReplies returns up to paging.RepliesLimit replies under postID,
// oldest first.
func ListReplies(ctx context.Context, db *mongo.Database, postID primitive.ObjectID) ([]PostView, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"parent": postID}}},
		{{Key: "$sort", Value: oldestFirst}},
		{{Key: "$limit", Value: paging.RepliesLimit}},
	}
	pipe = append(pipe, authorLookup("author", "authorInfo")...)
	cur, err := db.Collection("posts").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []PostView{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
