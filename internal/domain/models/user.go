// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a marketplace user can hold.
const (
	RoleCaregiver = "caregiver"
	RoleProvider  = "provider"
)

// User is a caregiver or a provider.
//
// NOTE:
//   - UserID is the external identifier issued at signup. It never changes
//     and every other collection joins on it, not on _id.
//   - FavoriteJobs, Applications and SavedCandidates are newest-first; writes
//     prepend with $push/$position:0 and remove with $pull.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   string             `bson:"userID" json:"userID"`
	Email    string             `bson:"email" json:"email"`
	Hash     string             `bson:"hash,omitempty" json:"hash,omitempty"` // md5 of the folded email
	Role     string             `bson:"role" json:"role"`                     // caregiver | provider
	FName    string             `bson:"fname,omitempty" json:"fname,omitempty"`
	LName    string             `bson:"lname,omitempty" json:"lname,omitempty"`
	Name     string             `bson:"name,omitempty" json:"name,omitempty"`
	NameCI   string             `bson:"name_ci,omitempty" json:"-"`
	Phone    string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address  string             `bson:"address,omitempty" json:"address,omitempty"`
	City     string             `bson:"city,omitempty" json:"city,omitempty"`
	Zipcode  string             `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	Location *GeoPoint          `bson:"geocode_address,omitempty" json:"geocode_address,omitempty"`

	Licenses         []string `bson:"licenses,omitempty" json:"licenses,omitempty"`
	Availability     []string `bson:"availability,omitempty" json:"availability,omitempty"`
	Mobility         string   `bson:"mobility,omitempty" json:"mobility,omitempty"` // has_car | no_car
	AlertPreferences []string `bson:"alert_preferences,omitempty" json:"alert_preferences,omitempty"`
	Experience       string   `bson:"experience,omitempty" json:"experience,omitempty"`
	Bio              string   `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfileImage     string   `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Complete         bool     `bson:"complete" json:"complete"`

	// Provider-only profile fields.
	TypeOfSetting string         `bson:"type_of_setting,omitempty" json:"type_of_setting,omitempty"`
	Settings      map[string]any `bson:"settings,omitempty" json:"settings,omitempty"`

	CareerRecommendation map[string]any `bson:"career_recommendation,omitempty" json:"career_recommendation,omitempty"`
	ReferralCode         string         `bson:"referral_code,omitempty" json:"referral_code,omitempty"`
	CustomerID           string         `bson:"customer_id,omitempty" json:"customer_id,omitempty"`

	FavoriteJobs    []FavoriteJob     `bson:"favorite_jobs,omitempty" json:"favorite_jobs,omitempty"`
	Applications    []ApplicationItem `bson:"application_submitted,omitempty" json:"application_submitted,omitempty"`
	SavedCandidates []SavedCandidate  `bson:"saved_candidates,omitempty" json:"saved_candidates,omitempty"`

	Created time.Time `bson:"created" json:"created"`
	Updated time.Time `bson:"updated,omitempty" json:"updated,omitempty"`
}

// DisplayName prefers "fname lname" and falls back to Name.
func (u User) DisplayName() string {
	switch {
	case u.FName != "" && u.LName != "":
		return u.FName + " " + u.LName
	case u.FName != "":
		return u.FName
	default:
		return u.Name
	}
}

// FavoriteJob is a caregiver's saved job reference.
type FavoriteJob struct {
	JobID   string    `bson:"jobId" json:"jobId"`
	Title   string    `bson:"title,omitempty" json:"title,omitempty"`
	SavedOn time.Time `bson:"saved_on" json:"saved_on"`
}

// ApplicationItem records a submitted application on the caregiver side.
type ApplicationItem struct {
	JobID      string    `bson:"jobId" json:"jobId"`
	Title      string    `bson:"title,omitempty" json:"title,omitempty"`
	Provider   string    `bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderID string    `bson:"providerID,omitempty" json:"providerID,omitempty"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	Date       time.Time `bson:"date" json:"date"`
}

// SavedCandidate is a provider's bookmarked caregiver.
type SavedCandidate struct {
	UserID  string    `bson:"userID" json:"userID"`
	SavedOn time.Time `bson:"saved_on" json:"saved_on"`
}
