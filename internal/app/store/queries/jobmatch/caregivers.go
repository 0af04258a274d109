package jobmatch

import (
	"context"
	"errors"

	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Caregiver is a caregiver as seen by providers. Distance (miles) is set by
// geo-ranked queries only.
type Caregiver struct {
	models.User `bson:",inline"`
	Distance    *float64 `bson:"distance,omitempty" json:"distance,omitempty"`
}

// privateFields never leave the users collection through these queries.
var privateFields = bson.M{
	"favorite_jobs":         0,
	"application_submitted": 0,
	"saved_candidates":      0,
	"customer_id":           0,
	"settings":              0,
	"hash":                  0,
	"name_ci":               0,
}

// BestMatch finds complete caregivers for provider. The provider's
// coordinates rank by distance within the search radius; without them the
// provider's city, then zipcode, is matched exactly. A provider with none
// of these gets an empty page.
func BestMatch(ctx context.Context, db *mongo.Database, provider models.User, alertPrefs []string, p paging.Page) (Page[Caregiver], error) {
	filter := bson.M{"role": models.RoleCaregiver, "complete": true}
	if v := nonEmpty(alertPrefs); len(v) > 0 {
		filter["alert_preferences"] = bson.M{"$in": v}
	}
	var n near
	switch {
	case provider.Location.Valid():
		n = near{Point: provider.Location, MaxMeters: geo.SearchRadiusMeters}
	case provider.City != "":
		filter["city"] = provider.City
	case provider.Zipcode != "":
		filter["zipcode"] = provider.Zipcode
	default:
		return Page[Caregiver]{Items: []Caregiver{}, Meta: paging.NewMeta(p, 0)}, nil
	}
	return query[Caregiver](ctx, db.Collection("users"), filter, n, nil, p, privateFields)
}

// CaregiversForJob returns up to paging.SimilarLimit caregivers suited to
// j, nearest first when the job has coordinates.
func CaregiversForJob(ctx context.Context, db *mongo.Database, j models.Job) ([]Caregiver, error) {
	n := near{Point: j.Location, MaxMeters: geo.SearchRadiusMeters}
	page, err := query[Caregiver](ctx, db.Collection("users"), forJob(j), n, nil, paging.Clamp(1, paging.SimilarLimit), privateFields)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SearchCaregivers runs a provider's caregiver search, newest first.
func SearchCaregivers(ctx context.Context, db *mongo.Database, s CaregiverSearch, p paging.Page) (Page[Caregiver], error) {
	return query[Caregiver](ctx, db.Collection("users"), s.Build(), near{}, nil, p, privateFields)
}

// NearbyCaregivers lists caregivers within the search radius of loc holding
// every requested attribute, newest first.
func NearbyCaregivers(ctx context.Context, db *mongo.Database, loc *models.GeoPoint, attrs CaregiverAttrs, p paging.Page) (Page[Caregiver], error) {
	n := near{Point: loc, MaxMeters: geo.SearchRadiusMeters}
	return query[Caregiver](ctx, db.Collection("users"), attrs.Build(), n, byCreated, p, privateFields)
}

// CaregiverWithSimilar loads one caregiver and up to paging.SimilarLimit
// others sharing a city, zipcode or license.
func CaregiverWithSimilar(ctx context.Context, db *mongo.Database, userID string) (*Caregiver, []Caregiver, error) {
	users := db.Collection("users")
	var c Caregiver
	err := users.FindOne(ctx,
		bson.M{"userID": userID, "role": models.RoleCaregiver},
		options.FindOne().SetProjection(privateFields),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	similar := []Caregiver{}
	filter, ok := similarTo(c.User)
	if !ok {
		return &c, similar, nil
	}
	opts := options.Find().
		SetProjection(privateFields).
		SetSort(byCreated).
		SetLimit(int64(paging.SimilarLimit))
	cur, err := users.Find(ctx, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &similar); err != nil {
		return nil, nil, err
	}
	return &c, similar, nil
}

// Recipient is one caregiver to alert about a job.
type Recipient struct {
	UserID string
	Email  string
	Name   string
	Miles  int
}

type recipientDoc struct {
	UserID   string         `bson:"userID"`
	Email    string         `bson:"email"`
	FName    string         `bson:"fname"`
	LName    string         `bson:"lname"`
	Name     string         `bson:"name"`
	Settings map[string]any `bson:"settings"`
	Distance float64        `bson:"distance"`
}

func (d recipientDoc) recipient() Recipient {
	email := d.Email
	if s, ok := d.Settings["email"].(string); ok && s != "" {
		email = s
	}
	u := models.User{FName: d.FName, LName: d.LName, Name: d.Name}
	return Recipient{
		UserID: d.UserID,
		Email:  email,
		Name:   u.DisplayName(),
		Miles:  geo.RoundMiles(d.Distance),
	}
}

// AlertRecipients returns every caregiver within the alert radius of j,
// nearest first, with distance rounded up to whole miles. Callers shuffle
// and cap the result. A job without coordinates has no recipients.
func AlertRecipients(ctx context.Context, db *mongo.Database, j models.Job) ([]Recipient, error) {
	if !j.Location.Valid() {
		return []Recipient{}, nil
	}
	n := near{Point: j.Location, MaxMeters: geo.AlertRadiusMeters}
	pipe := mongo.Pipeline{
		n.geoNearStage(bson.M{"role": models.RoleCaregiver}),
		{{Key: "$project", Value: bson.M{
			"userID": 1, "email": 1, "fname": 1, "lname": 1, "name": 1,
			"settings": 1, "distance": 1,
		}}},
	}
	cur, err := db.Collection("users").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Recipient{}
	for cur.Next(ctx) {
		var d recipientDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		r := d.recipient()
		if r.Email == "" {
			continue
		}
		out = append(out, r)
	}
	return out, cur.Err()
}
