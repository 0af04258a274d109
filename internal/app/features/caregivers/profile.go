package caregivers

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type resumeRequest struct {
	FName            string   `json:"fname"`
	LName            string   `json:"lname"`
	Phone            string   `json:"phone"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	Zipcode          string   `json:"zipcode"`
	Licenses         []string `json:"licenses"`
	Availability     []string `json:"availability"`
	Mobility         string   `json:"mobility" validate:"omitempty,oneof=has_car no_car"`
	AlertPreferences []string `json:"alert_preferences"`
	Experience       string   `json:"experience"`
	Bio              string   `json:"bio"`
	ProfileImage     string   `json:"profileImage"`
}

// HandleResumeUpdate handles POST /resume/update/{userID}. The profile is
// upserted and marked complete. Coordinates are refreshed only when the
// zipcode is well formed.
func (h *Handler) HandleResumeUpdate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := authSelf(r, userID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req resumeRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	complete := true
	p := userstore.Profile{
		Role:             models.RoleCaregiver,
		FName:            req.FName,
		LName:            req.LName,
		Phone:            req.Phone,
		Address:          req.Address,
		City:             req.City,
		Zipcode:          req.Zipcode,
		Licenses:         req.Licenses,
		Availability:     req.Availability,
		Mobility:         req.Mobility,
		AlertPreferences: req.AlertPreferences,
		Experience:       req.Experience,
		Bio:              req.Bio,
		ProfileImage:     req.ProfileImage,
		Complete:         &complete,
	}
	if geo.ValidZipcode(req.Zipcode) {
		p.Location = geo.Point(ctx, h.Geocoder, req.Zipcode, req.City, h.Log)
	}

	u, err := h.Users.UpdateProfile(ctx, userID, p)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to update profile")
		return
	}
	respond.OK(w, "profile updated", respond.M{"user": u})
}

type recommendationRequest struct {
	UserID         string         `json:"userID" validate:"required"`
	Recommendation map[string]any `json:"recommendation" validate:"required"`
}

// HandleSaveRecommendation handles POST /save-recommendation.
func (h *Handler) HandleSaveRecommendation(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := authSelf(r, req.UserID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetRecommendation(ctx, req.UserID, req.Recommendation); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to save recommendation")
		return
	}
	respond.OK(w, "recommendation saved", nil)
}

// ServeProvider handles GET /get-provider/{providerId}.
func (h *Handler) ServeProvider(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetWithRole(ctx, chi.URLParam(r, "providerId"), models.RoleProvider)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load provider")
		return
	}
	respond.OK(w, "", respond.M{"provider": publicProvider(u)})
}

// publicProvider drops billing and bookkeeping fields.
func publicProvider(u *models.User) *models.User {
	out := *u
	out.CustomerID = ""
	out.Hash = ""
	out.SavedCandidates = nil
	out.ReferralCode = ""
	return &out
}
