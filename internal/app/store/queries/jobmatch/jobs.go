package jobmatch

import (
	"context"
	"errors"

	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when the subject of a lookup does not exist.
var ErrNotFound = errors.New("not found")

// FeedForCaregiver lists public jobs nearest to loc, or newest first when
// loc is missing.
func FeedForCaregiver(ctx context.Context, db *mongo.Database, loc *models.GeoPoint, p paging.Page) (Page[models.Job], error) {
	return query[models.Job](ctx, db.Collection("jobs"), publicJobs(), near{Point: loc}, nil, p, nil)
}

// FilterJobs lists public jobs matching f, newest first.
func FilterJobs(ctx context.Context, db *mongo.Database, f JobFilter, p paging.Page) (Page[models.Job], error) {
	return query[models.Job](ctx, db.Collection("jobs"), f.Build(), near{}, nil, p, nil)
}

// SearchJobs lists public jobs matching f within the search radius of loc,
// nearest first. Without loc it is FilterJobs.
func SearchJobs(ctx context.Context, db *mongo.Database, loc *models.GeoPoint, f JobFilter, p paging.Page) (Page[models.Job], error) {
	n := near{Point: loc, MaxMeters: geo.SearchRadiusMeters}
	return query[models.Job](ctx, db.Collection("jobs"), f.Build(), n, nil, p, nil)
}

// ProviderCard is the public view of the provider behind a job.
type ProviderCard struct {
	UserID        string `bson:"userID" json:"userID"`
	Name          string `bson:"name,omitempty" json:"name,omitempty"`
	FName         string `bson:"fname,omitempty" json:"fname,omitempty"`
	LName         string `bson:"lname,omitempty" json:"lname,omitempty"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	City          string `bson:"city,omitempty" json:"city,omitempty"`
	Zipcode       string `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	ProfileImage  string `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	TypeOfSetting string `bson:"type_of_setting,omitempty" json:"type_of_setting,omitempty"`
	Bio           string `bson:"bio,omitempty" json:"bio,omitempty"`
}

// JobDetail is a job with its provider joined by userID. Provider is nil
// when the provider no longer exists.
type JobDetail struct {
	models.Job `bson:",inline"`
	Provider   *ProviderCard `bson:"provider" json:"provider"`
}

// GetJobWithProvider loads a job and joins its provider on users.userID.
func GetJobWithProvider(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*JobDetail, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "userID",
			"foreignField": "userID",
			"as":           "provider",
			"pipeline": bson.A{
				bson.M{"$project": providerCardProjection},
				bson.M{"$limit": 1},
			},
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$provider", "preserveNullAndEmptyArrays": true}}},
	}
	cur, err := db.Collection("jobs").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []JobDetail
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

var providerCardProjection = bson.M{
	"_id": 0, "userID": 1, "name": 1, "fname": 1, "lname": 1, "email": 1,
	"phone": 1, "city": 1, "zipcode": 1, "profileImage": 1,
	"type_of_setting": 1, "bio": 1,
}
