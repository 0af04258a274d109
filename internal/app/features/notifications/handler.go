// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	notificationstore "github.com/dalemusser/kinshealth/internal/app/store/notifications"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/app/system/reqparams"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the generic notification API.
type Handler struct {
	Notifications *notificationstore.Store
	Log           *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Notifications: notificationstore.New(db), Log: logger}
}

type sendRequest struct {
	Type       string         `json:"type" validate:"required"`
	ToUserID   string         `json:"toUserId" validate:"required"`
	FromUserID string         `json:"fromUserId"`
	Message    string         `json:"message" validate:"required"`
	SenderType string         `json:"senderType" validate:"required"`
	Metadata   map[string]any `json:"metadata"`
}

// HandleSend handles POST /send. The sender defaults to the caller and may
// not be someone else.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apperr.Unauthorized("sign in required"), "")
		return
	}
	if req.FromUserID == "" {
		req.FromUserID = u.ID
	} else if req.FromUserID != u.ID {
		respond.Error(w, r, h.Log, apperr.Forbidden("fromUserId must be your own id"), "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notifications.Insert(ctx, models.Notification{
		Type:       req.Type,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		SenderType: req.SenderType,
		Message:    req.Message,
		Metadata:   req.Metadata,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to send notification")
		return
	}
	respond.Created(w, "notification sent", respond.M{"notification": n})
}

// ServeFetch handles GET /fetch?userId&unreadOnly&page&limit.
func (h *Handler) ServeFetch(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("userId is required"), "")
		return
	}
	if err := auth.RequireSelf(r, userID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	unread := reqparams.Bool(r, "unreadOnly")
	p := paging.Parse(r, paging.SearchLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Notifications.PageForUser(ctx, userID, unread, p)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load notifications")
		return
	}
	respond.OK(w, "", respond.M{
		"notifications": page.Items,
		"unreadCount":   page.UnreadCount,
		"pagination":    paging.NewMeta(p, page.Total),
	})
}

type markRequest struct {
	NotificationID string `json:"notificationId" validate:"required,objectid"`
}

// HandleMarkAsRead handles POST /mark-as-read.
func (h *Handler) HandleMarkAsRead(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	id, err := inputval.ParseObjectID("notificationId", req.NotificationID)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notifications.SetRead(ctx, id, true)
	if errors.Is(err, notificationstore.ErrNotFound) {
		err = apperr.NotFound("notification not found")
	}
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to mark notification")
		return
	}
	respond.OK(w, "notification marked as read", respond.M{"notification": n})
}
