// internal/domain/models/job.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job mobility requirements.
const (
	MobilityCarNeeded   = "car_needed"
	MobilityNoCarNeeded = "no_car_needed"
)

// Job is a provider's posting.
//
// NOTE:
//   - UserID references the posting provider's users.userID.
//   - Draft jobs never appear in public listings.
//   - Applicants are snapshots taken when the caregiver applied; they are
//     never refreshed from the user document.
type Job struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	UserID       string             `bson:"userID" json:"userID"`
	Hash         string             `bson:"hash,omitempty" json:"hash,omitempty"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Provider     string             `bson:"provider,omitempty" json:"provider,omitempty"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	Zipcode      string             `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	Location     *GeoPoint          `bson:"geocode_address,omitempty" json:"geocode_address,omitempty"`
	Licenses     []string           `bson:"licenses,omitempty" json:"licenses,omitempty"`
	Schedule     string             `bson:"schedule,omitempty" json:"schedule,omitempty"`
	MinHours     int                `bson:"minHours" json:"minHours"`
	Compensation string             `bson:"compensation,omitempty" json:"compensation,omitempty"`
	Mobility     string             `bson:"mobility,omitempty" json:"mobility,omitempty"`
	Draft        bool               `bson:"draft" json:"draft"`
	Applicants   []Applicant        `bson:"applicants,omitempty" json:"applicants,omitempty"`

	Created time.Time `bson:"created" json:"created"`
	Updated time.Time `bson:"updated,omitempty" json:"updated,omitempty"`

	// Distance is only populated by geo-ranked queries (miles).
	Distance *float64 `bson:"distance,omitempty" json:"distance,omitempty"`
}

// Applicant is the caregiver as they were at apply time.
type Applicant struct {
	UserID       string    `bson:"userID" json:"userID"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	Availability []string  `bson:"availability,omitempty" json:"availability,omitempty"`
	Licenses     []string  `bson:"licenses,omitempty" json:"licenses,omitempty"`
	AppliedOn    time.Time `bson:"applied_on" json:"applied_on"`
}

// SnapshotApplicant copies the fields of u that a provider sees on an
// application. Slices are cloned so later profile edits cannot alias it.
func SnapshotApplicant(u User, at time.Time) Applicant {
	return Applicant{
		UserID:       u.UserID,
		Name:         u.DisplayName(),
		Email:        u.Email,
		Availability: append([]string(nil), u.Availability...),
		Licenses:     append([]string(nil), u.Licenses...),
		AppliedOn:    at,
	}
}

// HasApplicant reports whether userID already applied.
func (j Job) HasApplicant(userID string) bool {
	for _, a := range j.Applicants {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
