// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	contactstore "github.com/dalemusser/kinshealth/internal/app/store/contacts"
	forumstore "github.com/dalemusser/kinshealth/internal/app/store/forum"
	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/auditlog"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/payments"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/app/system/txn"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves account creation, lookup and removal.
type Handler struct {
	Users    *userstore.Store
	Contacts *contactstore.Store
	Forum    *forumstore.Store
	Gateway  payments.Gateway
	Auth     *auth.Manager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler wires the account stores.
func NewHandler(db *mongo.Database, tx *txn.Runner, gw payments.Gateway, mgr *auth.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Contacts: contactstore.New(db),
		Forum:    forumstore.New(db, tx),
		Gateway:  gw,
		Auth:     mgr,
		Log:      logger,
	}
}

type createRequest struct {
	UserID string `json:"userID" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,role"`
	FName  string `json:"fname"`
	LName  string `json:"lname"`
	Phone  string `json:"phone" validate:"omitempty,phone_e164"`
}

// referralCode derives a short code from a random uuid.
func referralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// HandleCreateUser handles POST /create_user.
//
// The caller's identity token must name userID. Providers get a payment
// customer first; a failure there is logged and the account is still
// created without one.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := auth.RequireSelf(r, req.UserID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u := models.User{
		UserID:       req.UserID,
		Email:        req.Email,
		Role:         req.Role,
		FName:        strings.TrimSpace(req.FName),
		LName:        strings.TrimSpace(req.LName),
		Phone:        req.Phone,
		ReferralCode: referralCode(),
	}

	if u.Role == models.RoleProvider && h.Gateway != nil {
		name := strings.TrimSpace(u.FName + " " + u.LName)
		id, err := h.Gateway.CreateCustomer(ctx, u.Email, name)
		switch {
		case errors.Is(err, payments.ErrNotConfigured):
		case err != nil:
			h.Log.Warn("payment customer not created", zap.String("user_id", u.UserID), zap.Error(err))
		default:
			u.CustomerID = id
		}
	}

	saved, err := h.Users.Upsert(ctx, u)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to create user")
		return
	}
	if err := h.Contacts.UpsertByEmail(ctx, models.Contact{
		Email:      saved.Email,
		UserID:     saved.UserID,
		Role:       saved.Role,
		CustomerID: u.CustomerID,
	}); err != nil {
		// The user exists; the contact is rebuilt on the next signup or
		// customer creation.
		h.Log.Warn("contact upsert failed", zap.String("user_id", saved.UserID), zap.Error(err))
	}

	h.Audit.AccountCreated(ctx, r, saved.UserID, saved.Role)
	h.Log.Info("user created", zap.String("user_id", saved.UserID), zap.String("role", saved.Role))
	respond.Created(w, "user created", respond.M{"user": saved})
}

// ServeUser handles GET /user/{userID}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByUserID(ctx, chi.URLParam(r, "userID"))
	if errors.Is(err, userstore.ErrNotFound) {
		err = apperr.NotFound("user not found")
	}
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load user")
		return
	}
	respond.OK(w, "", respond.M{"user": u})
}

// HandleDeleteUser handles DELETE /user/{userID}. The caller must be the
// user or present the admin key.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !h.Auth.CheckAdminKey(r.Header.Get(auth.AdminKeyHeader)) {
		if err := auth.RequireSelf(r, userID); err != nil {
			respond.Error(w, r, h.Log, err, "")
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := DeleteUser(ctx, h.Users, h.Forum, userID); err != nil {
		respond.Error(w, r, h.Log, err, "failed to delete user")
		return
	}
	h.Audit.AccountDeleted(ctx, r, userID)
	respond.OK(w, "user deleted", nil)
}

// DeleteUser removes the user's likes, then the user. Shared with the
// admin surface.
func DeleteUser(ctx context.Context, users *userstore.Store, forum *forumstore.Store, userID string) error {
	if _, err := users.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	if _, err := forum.RemoveUserLikes(ctx, userID); err != nil {
		return err
	}
	n, err := users.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
