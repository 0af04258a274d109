package caregivers

import (
	"context"
	"net/http"

	notificationstore "github.com/dalemusser/kinshealth/internal/app/store/notifications"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeNotifications handles GET /notifications/{userId}?status=.
func (h *Handler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := authSelf(r, userID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "":
		status = notificationstore.StatusAll
	case notificationstore.StatusAll, notificationstore.StatusRead, notificationstore.StatusUnread:
	default:
		respond.Error(w, r, h.Log, apperr.Validation("status must be read, unread or all"), "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Notifications.ListForUser(ctx, userID, status)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load notifications")
		return
	}
	respond.OK(w, "", respond.M{"notifications": items})
}

type readRequest struct {
	Read *bool `json:"read"`
}

// HandleSetRead handles POST /notifications/{notificationId}. read defaults
// to true.
func (h *Handler) HandleSetRead(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notificationId"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.NotFound("notification not found"), "")
		return
	}
	var req readRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, h.Log, err, "")
			return
		}
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notifications.SetRead(ctx, id, read)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to update notification")
		return
	}
	respond.OK(w, "notification updated", respond.M{"notification": n})
}
