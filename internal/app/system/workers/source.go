package workers

import (
	"context"

	jobstore "github.com/dalemusser/kinshealth/internal/app/store/jobs"
	"github.com/dalemusser/kinshealth/internal/app/store/queries/jobmatch"
	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAlertSource reads alert inputs from the stores.
type MongoAlertSource struct {
	db    *mongo.Database
	jobs  *jobstore.Store
	users *userstore.Store
}

// NewMongoAlertSource binds a source to db.
func NewMongoAlertSource(db *mongo.Database) *MongoAlertSource {
	return &MongoAlertSource{db: db, jobs: jobstore.New(db), users: userstore.New(db)}
}

func (s *MongoAlertSource) Job(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	return s.jobs.Get(ctx, id)
}

func (s *MongoAlertSource) JobRecipients(ctx context.Context, job models.Job) ([]jobmatch.Recipient, error) {
	return jobmatch.AlertRecipients(ctx, s.db, job)
}

func (s *MongoAlertSource) Caregiver(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetWithRole(ctx, userID, models.RoleCaregiver)
}

func (s *MongoAlertSource) SampleProvider(ctx context.Context) (*models.User, error) {
	return s.users.SampleOne(ctx, models.RoleProvider)
}
