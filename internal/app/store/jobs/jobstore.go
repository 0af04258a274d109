package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("job not found")
	ErrForbidden      = errors.New("job belongs to another provider")
	ErrAlreadyApplied = errors.New("caregiver already applied to this job")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("jobs")}
}

// Get loads a job by _id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var j models.Job
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&j); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// UpsertResult describes what an Upsert changed.
type UpsertResult struct {
	Job      models.Job
	Inserted bool
	// Published is true when the job is now public and was not before:
	// a new non-draft job or a draft flipped to published.
	Published bool
}

// Upsert writes j by _id. created is set on insert only; updated always.
// Applicants are never written here. A zero ID allocates a new one. An id
// owned by another provider collides on _id and yields ErrForbidden.
func (s *Store) Upsert(ctx context.Context, j models.Job) (UpsertResult, error) {
	if j.ID.IsZero() {
		j.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	set := bson.M{
		"userID":       j.UserID,
		"title":        j.Title,
		"description":  j.Description,
		"provider":     j.Provider,
		"email":        j.Email,
		"address":      j.Address,
		"city":         j.City,
		"zipcode":      j.Zipcode,
		"licenses":     j.Licenses,
		"schedule":     j.Schedule,
		"minHours":     j.MinHours,
		"compensation": j.Compensation,
		"mobility":     j.Mobility,
		"draft":        j.Draft,
		"updated":      now,
	}
	if j.Hash != "" {
		set["hash"] = j.Hash
	}
	if j.Location != nil {
		set["geocode_address"] = j.Location
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)
	var before models.Job
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": j.ID, "userID": j.UserID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"created": now}},
		opts,
	).Decode(&before)

	var res UpsertResult
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		res.Inserted = true
		res.Published = !j.Draft
	case wafflemongo.IsDup(err):
		return UpsertResult{}, ErrForbidden
	case err != nil:
		return UpsertResult{}, err
	default:
		res.Published = before.Draft && !j.Draft
	}

	after, err := s.Get(ctx, j.ID)
	if err != nil {
		return UpsertResult{}, err
	}
	res.Job = *after
	return res, nil
}

// ListByOwner returns every job posted by providerID, newest first.
func (s *Store) ListByOwner(ctx context.Context, providerID string) ([]models.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	return s.find(ctx, bson.M{"userID": providerID}, opts)
}

// ListByIDs resolves hex ids via $in. Malformed ids are ignored.
func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]models.Job, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []models.Job{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	return s.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Job, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Job{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddApplicant prepends the snapshot unless the caregiver is already on the
// job. The guard is part of the update filter, so two concurrent applies
// cannot both succeed.
func (s *Store) AddApplicant(ctx context.Context, jobID primitive.ObjectID, a models.Applicant) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": jobID, "applicants.userID": bson.M{"$ne": a.UserID}},
		bson.M{"$push": bson.M{"applicants": bson.M{"$each": bson.A{a}, "$position": 0}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, gerr := s.Get(ctx, jobID); gerr != nil {
			return gerr
		}
		return ErrAlreadyApplied
	}
	return nil
}

// SetDraft flips the draft flag.
func (s *Store) SetDraft(ctx context.Context, id primitive.ObjectID, draft bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"draft": draft, "updated": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOwned deletes id when it belongs to providerID.
func (s *Store) DeleteOwned(ctx context.Context, id primitive.ObjectID, providerID string) error {
	j, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if j.UserID != providerID {
		return ErrForbidden
	}
	return s.Delete(ctx, id)
}

// Delete removes a job regardless of owner.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
