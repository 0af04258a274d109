// internal/app/features/forum/handler.go
package forum

import (
	"errors"
	"net/http"

	forumstore "github.com/dalemusser/kinshealth/internal/app/store/forum"
	"github.com/dalemusser/kinshealth/internal/app/store/queries/forumqueries"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/txn"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the community forum.
type Handler struct {
	DB    *mongo.Database
	Forum *forumstore.Store
	Log   *zap.Logger
}

// NewHandler wires the forum store over db.
func NewHandler(db *mongo.Database, tx *txn.Runner, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Forum: forumstore.New(db, tx),
		Log:   logger,
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, forumstore.ErrNotFound), errors.Is(err, forumqueries.ErrNotFound):
		return apperr.NotFound("item not found")
	case errors.Is(err, forumstore.ErrForbidden):
		return apperr.Forbidden("only the author can change this item")
	case errors.Is(err, forumstore.ErrAlreadyLiked):
		return apperr.Conflict("already liked")
	case errors.Is(err, forumstore.ErrNotLiked):
		return apperr.NotFound("like not found")
	case errors.Is(err, forumstore.ErrBadItemType):
		return apperr.Validation("itemType must be thread, post or reply")
	case errors.Is(err, forumstore.ErrEmptyContent):
		return apperr.Validation("content is required")
	}
	return err
}

// pathID parses an ObjectID URL parameter. Malformed ids cannot name an
// existing item, so they are reported as not found.
func pathID(r *http.Request, key string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("item not found")
	}
	return id, nil
}

// requester is the signed-in user's id. Write routes are guarded, so a
// missing user is only possible when a route is miswired.
func requester(r *http.Request) (string, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return "", apperr.Unauthorized("sign in required")
	}
	return u.ID, nil
}
