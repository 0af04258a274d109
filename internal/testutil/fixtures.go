package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures inserts test documents directly, without going through the
// stores under test.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures helper.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// UserOpt customizes a fixture user before insert.
type UserOpt func(*models.User)

// At places the user at lat/lng.
func At(lat, lng float64) UserOpt {
	return func(u *models.User) { u.Location = models.NewPoint(lat, lng) }
}

// CreatedAt overrides the created timestamp.
func CreatedAt(ts time.Time) UserOpt {
	return func(u *models.User) { u.Created = ts }
}

func (f *Fixtures) createUser(ctx context.Context, userID, role string, opts []UserOpt) models.User {
	f.t.Helper()
	u := models.User{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Email:    userID + "@test.com",
		Role:     role,
		FName:    "Test",
		LName:    userID,
		Name:     "Test " + userID,
		Complete: true,
		Created:  time.Now().UTC(),
	}
	for _, o := range opts {
		o(&u)
	}
	u.NameCI = text.Fold(u.Name)
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create %s %q: %v", role, userID, err)
	}
	return u
}

// CreateCaregiver inserts a complete caregiver.
func (f *Fixtures) CreateCaregiver(ctx context.Context, userID string, opts ...UserOpt) models.User {
	f.t.Helper()
	return f.createUser(ctx, userID, models.RoleCaregiver, opts)
}

// CreateProvider inserts a provider.
func (f *Fixtures) CreateProvider(ctx context.Context, userID string, opts ...UserOpt) models.User {
	f.t.Helper()
	return f.createUser(ctx, userID, models.RoleProvider, opts)
}

// JobOpt customizes a fixture job before insert.
type JobOpt func(*models.Job)

// JobAt places the job at lat/lng.
func JobAt(lat, lng float64) JobOpt {
	return func(j *models.Job) { j.Location = models.NewPoint(lat, lng) }
}

// JobCreated overrides the created timestamp.
func JobCreated(ts time.Time) JobOpt {
	return func(j *models.Job) { j.Created = ts }
}

// Draft marks the job as a draft.
func Draft() JobOpt {
	return func(j *models.Job) { j.Draft = true }
}

// CreateJob inserts a published job owned by providerID.
func (f *Fixtures) CreateJob(ctx context.Context, providerID, title string, opts ...JobOpt) models.Job {
	f.t.Helper()
	j := models.Job{
		ID:      primitive.NewObjectID(),
		UserID:  providerID,
		Title:   title,
		Created: time.Now().UTC(),
	}
	for _, o := range opts {
		o(&j)
	}
	if _, err := f.db.Collection("jobs").InsertOne(ctx, j); err != nil {
		f.t.Fatalf("failed to create job %q: %v", title, err)
	}
	return j
}

// CreateThread inserts an open thread.
func (f *Fixtures) CreateThread(ctx context.Context, creator, title string, categories, tags []string) models.Thread {
	f.t.Helper()
	now := time.Now().UTC()
	th := models.Thread{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Content:    "<p>" + title + "</p>",
		Creator:    creator,
		Categories: categories,
		Tags:       tags,
		Status:     models.ThreadStatusOpen,
		Posts:      []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("threads").InsertOne(ctx, th); err != nil {
		f.t.Fatalf("failed to create thread %q: %v", title, err)
	}
	return th
}

// CreatePost inserts a post under threadID, or a reply when parent is set,
// and links it the same way the forum store does.
func (f *Fixtures) CreatePost(ctx context.Context, threadID primitive.ObjectID, parent *primitive.ObjectID, author, content string) models.Post {
	f.t.Helper()
	now := time.Now().UTC()
	p := models.Post{
		ID:        primitive.NewObjectID(),
		ThreadID:  threadID,
		Author:    author,
		Content:   content,
		Parent:    parent,
		Children:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create post: %v", err)
	}
	if parent == nil {
		_, err := f.db.Collection("threads").UpdateOne(ctx, bson.M{"_id": threadID},
			bson.M{"$push": bson.M{"posts": p.ID}, "$inc": bson.M{"replies": 1}})
		if err != nil {
			f.t.Fatalf("failed to link post: %v", err)
		}
	} else {
		_, err := f.db.Collection("posts").UpdateOne(ctx, bson.M{"_id": *parent},
			bson.M{"$push": bson.M{"children": p.ID}, "$inc": bson.M{"replies": 1}})
		if err != nil {
			f.t.Fatalf("failed to link reply: %v", err)
		}
		_, _ = f.db.Collection("threads").UpdateOne(ctx, bson.M{"_id": threadID}, bson.M{"$inc": bson.M{"replies": 1}})
	}
	return p
}

// Count returns the number of documents in coll matching filter.
func (f *Fixtures) Count(ctx context.Context, coll string, filter any) int64 {
	f.t.Helper()
	n, err := f.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		f.t.Fatalf("count %s: %v", coll, err)
	}
	return n
}
