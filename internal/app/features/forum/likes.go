package forum

import (
	"context"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// likeTarget reads {itemType}/{itemId}. An unknown type is a validation
// error; a malformed id cannot exist.
func likeTarget(r *http.Request) (string, primitive.ObjectID, error) {
	itemType := chi.URLParam(r, "itemType")
	if !inputval.IsValidItemType(itemType) {
		return "", primitive.NilObjectID, apperr.Validation("itemType must be thread, post or reply")
	}
	id, err := pathID(r, "itemId")
	return itemType, id, err
}

// HandleLike handles POST /like/{itemType}/{itemId}.
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, true)
}

// HandleUnlike handles DELETE /like/{itemType}/{itemId}.
func (h *Handler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, false)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, like bool) {
	itemType, id, err := likeTarget(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var count int
	if like {
		count, err = h.Forum.Like(ctx, uid, itemType, id)
	} else {
		count, err = h.Forum.Unlike(ctx, uid, itemType, id)
	}
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to update like")
		return
	}
	respond.OK(w, "", respond.M{"liked": like, "likesCount": count})
}

// ServeLikeStatus handles GET /like/{itemType}/{itemId}/{userID}.
func (h *Handler) ServeLikeStatus(w http.ResponseWriter, r *http.Request) {
	itemType, id, err := likeTarget(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	liked, err := h.Forum.HasLiked(ctx, chi.URLParam(r, "userID"), itemType, id)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load like")
		return
	}
	respond.OK(w, "", respond.M{"liked": liked})
}
