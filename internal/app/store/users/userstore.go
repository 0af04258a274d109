package userstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no user has the requested userID.
var ErrNotFound = errors.New("user not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EmailHash is the provider-visible stable hash: md5 of the folded email.
func EmailHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// GetByUserID loads a user by external userID.
func (s *Store) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"userID": userID}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetWithRole is GetByUserID restricted to one role.
func (s *Store) GetWithRole(ctx context.Context, userID, role string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"userID": userID, "role": role}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Upsert creates or replaces the account fields of the user keyed by
// u.UserID. Profile arrays already on the document are left alone.
func (s *Store) Upsert(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Hash = EmailHash(u.Email)
	if u.Name == "" {
		u.Name = strings.TrimSpace(u.FName + " " + u.LName)
	}
	u.NameCI = text.Fold(u.Name)

	set := bson.M{
		"email":   u.Email,
		"hash":    u.Hash,
		"role":    u.Role,
		"fname":   u.FName,
		"lname":   u.LName,
		"name":    u.Name,
		"name_ci": u.NameCI,
		"updated": now,
	}
	if u.Phone != "" {
		set["phone"] = u.Phone
	}
	if u.CustomerID != "" {
		set["customer_id"] = u.CustomerID
	}
	setOnInsert := bson.M{"created": now, "complete": false}
	if u.ReferralCode != "" {
		setOnInsert["referral_code"] = u.ReferralCode
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"userID": u.UserID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		opts,
	).Decode(&out)
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}

// Profile is a profile write. Nil slices and empty strings are not written.
type Profile struct {
	Role             string
	FName            string
	LName            string
	Phone            string
	Address          string
	City             string
	Zipcode          string
	Location         *models.GeoPoint
	Licenses         []string
	Availability     []string
	Mobility         string
	AlertPreferences []string
	Experience       string
	Bio              string
	ProfileImage     string
	TypeOfSetting    string
	Settings         map[string]any
	Complete         *bool
}

func (p Profile) setDoc(now time.Time) bson.M {
	set := bson.M{"updated": now}
	str := func(key, v string) {
		if v != "" {
			set[key] = v
		}
	}
	str("fname", p.FName)
	str("lname", p.LName)
	str("phone", p.Phone)
	str("address", p.Address)
	str("city", p.City)
	str("zipcode", p.Zipcode)
	str("mobility", p.Mobility)
	str("experience", p.Experience)
	str("bio", p.Bio)
	str("profileImage", p.ProfileImage)
	str("type_of_setting", p.TypeOfSetting)
	if p.FName != "" || p.LName != "" {
		name := strings.TrimSpace(p.FName + " " + p.LName)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if p.Location != nil {
		set["geocode_address"] = p.Location
	}
	if p.Licenses != nil {
		set["licenses"] = p.Licenses
	}
	if p.Availability != nil {
		set["availability"] = p.Availability
	}
	if p.AlertPreferences != nil {
		set["alert_preferences"] = p.AlertPreferences
	}
	if p.Settings != nil {
		set["settings"] = p.Settings
	}
	if p.Complete != nil {
		set["complete"] = *p.Complete
	}
	return set
}

// UpdateProfile upserts the profile of userID and returns the result.
// A new document gets p.Role and a created timestamp.
func (s *Store) UpdateProfile(ctx context.Context, userID string, p Profile) (*models.User, error) {
	now := time.Now().UTC()
	setOnInsert := bson.M{"created": now}
	if p.Role != "" {
		setOnInsert["role"] = p.Role
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"userID": userID},
		bson.M{"$set": p.setDoc(now), "$setOnInsert": setOnInsert},
		opts,
	).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetRecommendation stores the caregiver's career recommendation.
func (s *Store) SetRecommendation(ctx context.Context, userID string, rec map[string]any) error {
	return s.updateOne(ctx, userID, bson.M{"$set": bson.M{"career_recommendation": rec, "updated": time.Now().UTC()}})
}

// SetRole changes the role. Callers validate the value.
func (s *Store) SetRole(ctx context.Context, userID, role string) error {
	return s.updateOne(ctx, userID, bson.M{"$set": bson.M{"role": role, "updated": time.Now().UTC()}})
}

// SetComplete toggles the profile completeness flag.
func (s *Store) SetComplete(ctx context.Context, userID string, complete bool) error {
	return s.updateOne(ctx, userID, bson.M{"$set": bson.M{"complete": complete, "updated": time.Now().UTC()}})
}

// SetCustomerID records the payment customer for userID.
func (s *Store) SetCustomerID(ctx context.Context, userID, customerID string) error {
	return s.updateOne(ctx, userID, bson.M{"$set": bson.M{"customer_id": customerID}})
}

// prepend builds a $push that inserts item at the head of field.
func prepend(field string, item any) bson.M {
	return bson.M{"$push": bson.M{field: bson.M{"$each": bson.A{item}, "$position": 0}}}
}

// AddFavoriteJob prepends fav. Repeated saves are kept as separate entries.
func (s *Store) AddFavoriteJob(ctx context.Context, userID string, fav models.FavoriteJob) error {
	return s.updateOne(ctx, userID, prepend("favorite_jobs", fav))
}

// RemoveFavoriteJob pulls every favorite for jobID.
func (s *Store) RemoveFavoriteJob(ctx context.Context, userID, jobID string) error {
	return s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"favorite_jobs": bson.M{"jobId": jobID}}})
}

// AddApplication prepends a submitted application record.
func (s *Store) AddApplication(ctx context.Context, userID string, app models.ApplicationItem) error {
	return s.updateOne(ctx, userID, prepend("application_submitted", app))
}

// AddSavedCandidate prepends a bookmarked caregiver.
func (s *Store) AddSavedCandidate(ctx context.Context, userID, caregiverID string) error {
	return s.updateOne(ctx, userID, prepend("saved_candidates", models.SavedCandidate{
		UserID:  caregiverID,
		SavedOn: time.Now().UTC(),
	}))
}

// RemoveSavedCandidate pulls caregiverID from the bookmarks.
func (s *Store) RemoveSavedCandidate(ctx context.Context, userID, caregiverID string) error {
	return s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"saved_candidates": bson.M{"userID": caregiverID}}})
}

func (s *Store) updateOne(ctx context.Context, userID string, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"userID": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUserIDs returns the users whose userID is in ids, keeping the order
// of ids. Unknown ids are skipped.
func (s *Store) ListByUserIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"userID": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var found []models.User
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(found))
	for _, u := range found {
		byID[u.UserID] = u
	}
	out := make([]models.User, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok && !seen[id] {
			out = append(out, u)
			seen[id] = true
		}
	}
	return out, nil
}

// SampleOne returns one random user with role, or ErrNotFound.
func (s *Store) SampleOne(ctx context.Context, role string) (*models.User, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": role}}},
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// Delete removes the user document. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"userID": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
