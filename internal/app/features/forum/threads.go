package forum

import (
	"context"
	"net/http"

	forumstore "github.com/dalemusser/kinshealth/internal/app/store/forum"
	"github.com/dalemusser/kinshealth/internal/app/store/queries/forumqueries"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/app/system/reqparams"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeThreads handles GET /threads.
func (h *Handler) ServeThreads(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	q := r.URL.Query()
	page, err := forumqueries.ListThreads(ctx, h.DB,
		forumqueries.ThreadFilter{
			Categories: reqparams.List(r, "categories"),
			Tags:       reqparams.List(r, "tags"),
		},
		forumqueries.Sort{
			By:      q.Get("sortBy"),
			Order:   q.Get("sortOrder"),
			Replies: q.Get("sortReplies"),
		},
		paging.Parse(r, paging.SearchLimit))
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load threads")
		return
	}
	msg := ""
	if page.Fallback {
		msg = "no threads matched the filter; showing all threads"
	}
	respond.OK(w, msg, respond.M{
		"threads":    page.Threads,
		"pagination": page.Meta,
		"fallback":   page.Fallback,
	})
}

// ServeThread handles GET /threads/{threadId}. Each read counts a view.
func (h *Handler) ServeThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "threadId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Forum.IncViews(ctx, id); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load thread")
		return
	}
	th, err := forumqueries.GetThread(ctx, h.DB, id)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load thread")
		return
	}
	respond.OK(w, "", respond.M{"thread": th})
}

type threadRequest struct {
	Title      string   `json:"title" validate:"required"`
	Content    string   `json:"content" validate:"required"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	ImageURL   string   `json:"imageUrl" validate:"omitempty,url"`
}

// HandleCreateThread handles POST /threads.
func (h *Handler) HandleCreateThread(w http.ResponseWriter, r *http.Request) {
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req threadRequest
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

	th, err := h.Forum.CreateThread(ctx, uid, forumstore.ThreadInput{
		Title:      req.Title,
		Content:    req.Content,
		Categories: req.Categories,
		Tags:       req.Tags,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to create thread")
		return
	}
	respond.Created(w, "thread created", respond.M{"thread": th})
}

type threadUpdateRequest struct {
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	ImageURL   *string  `json:"imageUrl"`
}

// HandleUpdateThread handles PUT /threads/{threadId}.
func (h *Handler) HandleUpdateThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "threadId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req threadUpdateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	th, err := h.Forum.UpdateThread(ctx, id, uid, forumstore.ThreadUpdate{
		Title:      req.Title,
		Content:    req.Content,
		Categories: req.Categories,
		Tags:       req.Tags,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to update thread")
		return
	}
	respond.OK(w, "thread updated", respond.M{"thread": th})
}

// HandleDeleteThread handles DELETE /threads/{threadId}. Posts, replies and
// likes go with it.
func (h *Handler) HandleDeleteThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "threadId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Forum.DeleteThread(ctx, id, uid); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to delete thread")
		return
	}
	h.Log.Info("thread deleted", zap.String("thread_id", id.Hex()), zap.String("user_id", uid))
	respond.OK(w, "thread deleted", nil)
}
