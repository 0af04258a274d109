package contactstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("contact not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// UpsertByEmail writes the identity fields of c. Billing state is only
// initialised on insert; webhooks own it afterwards.
func (s *Store) UpsertByEmail(ctx context.Context, c models.Contact) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if c.UserID != "" {
		set["userID"] = c.UserID
	}
	if c.Role != "" {
		set["role"] = c.Role
	}
	if c.CustomerID != "" {
		set["customer_id"] = c.CustomerID
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"email": normEmail(c.Email)},
		bson.M{"$set": set, "$setOnInsert": bson.M{"subscribed": false}},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetByEmail loads the contact for email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	return s.findOne(ctx, bson.M{"email": normEmail(email)})
}

// GetByCustomerID loads the contact for a payment customer.
func (s *Store) GetByCustomerID(ctx context.Context, customerID string) (*models.Contact, error) {
	return s.findOne(ctx, bson.M{"customer_id": customerID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Contact, error) {
	var c models.Contact
	if err := s.c.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Billing is a subscription state change for one customer.
type Billing struct {
	Subscribed   bool
	Trial        string
	TrialEndDate *time.Time // written only when SetTrialEnd
	SetTrialEnd  bool
}

// UpdateBilling applies b to the contact holding customerID.
func (s *Store) UpdateBilling(ctx context.Context, customerID string, b Billing) error {
	set := bson.M{
		"subscribed": b.Subscribed,
		"updated_at": time.Now().UTC(),
	}
	if b.Trial != "" {
		set["trial"] = b.Trial
	}
	if b.SetTrialEnd && b.TrialEndDate != nil {
		set["trial_end_date"] = *b.TrialEndDate
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"customer_id": customerID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
