package providers

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type settingsRequest struct {
	FName            string         `json:"fname"`
	LName            string         `json:"lname"`
	Phone            string         `json:"phone"`
	Address          string         `json:"address"`
	City             string         `json:"city"`
	Zipcode          string         `json:"zipcode"`
	TypeOfSetting    string         `json:"type_of_setting"`
	Bio              string         `json:"bio"`
	ProfileImage     string         `json:"profileImage"`
	AlertPreferences []string       `json:"alert_preferences"`
	Settings         map[string]any `json:"settings"`
	Complete         *bool          `json:"complete"`
}

// HandleSettingsUpdate handles POST /settings/update/{userID}.
func (h *Handler) HandleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := auth.RequireSelf(r, userID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req settingsRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p := userstore.Profile{
		Role:             models.RoleProvider,
		FName:            req.FName,
		LName:            req.LName,
		Phone:            req.Phone,
		Address:          req.Address,
		City:             req.City,
		Zipcode:          req.Zipcode,
		TypeOfSetting:    req.TypeOfSetting,
		Bio:              req.Bio,
		ProfileImage:     req.ProfileImage,
		AlertPreferences: req.AlertPreferences,
		Settings:         req.Settings,
		Complete:         req.Complete,
	}
	if geo.ValidZipcode(req.Zipcode) {
		p.Location = geo.Point(ctx, h.Geocoder, req.Zipcode, req.City, h.Log)
	}
	u, err := h.Users.UpdateProfile(ctx, userID, p)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to update settings")
		return
	}
	respond.OK(w, "settings updated", respond.M{"user": u})
}

// ServeFavoriteCaregivers handles GET /favorite-caregivers/{userID}.
func (h *Handler) ServeFavoriteCaregivers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByUserID(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load provider")
		return
	}
	ids := make([]string, 0, len(u.SavedCandidates))
	for _, c := range u.SavedCandidates {
		ids = append(ids, c.UserID)
	}
	cgs, err := h.Users.ListByUserIDs(ctx, ids)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load caregivers")
		return
	}
	for i := range cgs {
		cgs[i] = publicCaregiver(cgs[i])
	}
	respond.OK(w, "", respond.M{"caregivers": cgs})
}

type favoritesRequest struct {
	UserID      string `json:"userID" validate:"required"`
	CaregiverID string `json:"caregiverID" validate:"required"`
	Action      string `json:"action" validate:"required,oneof=add remove"`
}

// HandleSetFavorites handles POST /set_favorites.
func (h *Handler) HandleSetFavorites(w http.ResponseWriter, r *http.Request) {
	var req favoritesRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := auth.RequireSelf(r, req.UserID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var err error
	if req.Action == "add" {
		err = h.Users.AddSavedCandidate(ctx, req.UserID, req.CaregiverID)
	} else {
		err = h.Users.RemoveSavedCandidate(ctx, req.UserID, req.CaregiverID)
	}
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to update favorites")
		return
	}
	respond.OK(w, "favorites updated", nil)
}

// publicCaregiver strips the fields a provider should not see.
func publicCaregiver(u models.User) models.User {
	u.Hash = ""
	u.CustomerID = ""
	u.ReferralCode = ""
	u.CareerRecommendation = nil
	u.FavoriteJobs = nil
	u.Applications = nil
	return u
}
