// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/kinshealth/internal/app/features/accounts"
	"github.com/dalemusser/kinshealth/internal/app/store/audit"
	contactstore "github.com/dalemusser/kinshealth/internal/app/store/contacts"
	forumstore "github.com/dalemusser/kinshealth/internal/app/store/forum"
	jobstore "github.com/dalemusser/kinshealth/internal/app/store/jobs"
	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/auditlog"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/app/system/txn"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const auditLimit = 50

// Handler exposes the fixed set of operator actions. Every route sits
// behind the admin key.
type Handler struct {
	Users    *userstore.Store
	Jobs     *jobstore.Store
	Forum    *forumstore.Store
	Contacts *contactstore.Store
	Events   *audit.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler wires the admin stores.
func NewHandler(db *mongo.Database, tx *txn.Runner, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Jobs:     jobstore.New(db),
		Forum:    forumstore.New(db, tx),
		Contacts: contactstore.New(db),
		Events:   audit.New(db),
		Log:      logger,
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, jobstore.ErrNotFound):
		return apperr.NotFound("job not found")
	case errors.Is(err, forumstore.ErrNotFound):
		return apperr.NotFound("thread not found")
	case errors.Is(err, contactstore.ErrNotFound):
		return apperr.NotFound("contact not found")
	}
	return err
}

func objectID(r *http.Request, key string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("not found")
	}
	return id, nil
}

// ServeUser handles GET /users/{userID}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByUserID(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load user")
		return
	}
	respond.OK(w, "", respond.M{"user": u})
}

type roleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// HandleSetRole handles PUT /users/{userID}/role.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	userID := chi.URLParam(r, "userID")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetRole(ctx, userID, req.Role); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to set role")
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventRoleChanged, userID, "", map[string]string{"role": req.Role})
	respond.OK(w, "role updated", nil)
}

type completeRequest struct {
	Complete *bool `json:"complete" validate:"required"`
}

// HandleSetComplete handles PUT /users/{userID}/complete.
func (h *Handler) HandleSetComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	userID := chi.URLParam(r, "userID")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetComplete(ctx, userID, *req.Complete); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to set complete")
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventCompleteChanged, userID, "", map[string]string{"complete": strconv.FormatBool(*req.Complete)})
	respond.OK(w, "profile flag updated", nil)
}

// HandleDeleteUser handles DELETE /users/{userID}.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := accounts.DeleteUser(ctx, h.Users, h.Forum, userID); err != nil {
		respond.Error(w, r, h.Log, err, "failed to delete user")
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventUserDeleted, userID, "", nil)
	respond.OK(w, "user deleted", nil)
}

type draftRequest struct {
	Draft *bool `json:"draft" validate:"required"`
}

// HandleSetDraft handles PUT /jobs/{jobId}/draft.
func (h *Handler) HandleSetDraft(w http.ResponseWriter, r *http.Request) {
	id, err := objectID(r, "jobId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req draftRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Jobs.SetDraft(ctx, id, *req.Draft); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to update job")
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventJobDraftChanged, "", id.Hex(), map[string]string{"draft": strconv.FormatBool(*req.Draft)})
	respond.OK(w, "job updated", nil)
}

// HandleDeleteJob handles DELETE /jobs/{jobId}.
func (h *Handler) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := objectID(r, "jobId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Jobs.Delete(ctx, id); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to delete job")
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventJobDeleted, "", id.Hex(), nil)
	respond.OK(w, "job deleted", nil)
}

// HandleDeleteThread handles DELETE /threads/{threadId} without an
// ownership check.
func (h *Handler) HandleDeleteThread(w http.ResponseWriter, r *http.Request) {
	id, err := objectID(r, "threadId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Forum.DeleteThreadAny(ctx, id); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to delete thread")
		return
	}
	h.Audit.AdminAction(ctx, r, audit.EventThreadDeleted, "", id.Hex(), nil)
	respond.OK(w, "thread deleted", nil)
}

// ServeContact handles GET /contacts/{email}.
func (h *Handler) ServeContact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Contacts.GetByEmail(ctx, chi.URLParam(r, "email"))
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load contact")
		return
	}
	respond.OK(w, "", respond.M{"contact": c})
}

// ServeAudit handles GET /audit?userID&category&eventType&page&limit.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := paging.Parse(r, auditLimit)
	filter := audit.QueryFilter{
		UserID:    q.Get("userID"),
		Category:  q.Get("category"),
		EventType: q.Get("eventType"),
		Limit:     p.Limit64(),
		Offset:    p.Skip(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		events []audit.Event
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = h.Events.Query(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		total, err = h.Events.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		respond.Error(w, r, h.Log, err, "failed to load audit events")
		return
	}
	respond.OK(w, "", respond.M{"events": events, "pagination": paging.NewMeta(p, total)})
}
