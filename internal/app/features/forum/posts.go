package forum

import (
	"context"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/store/queries/forumqueries"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServePosts handles GET /threads/{threadId}/posts.
func (h *Handler) ServePosts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "threadId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	posts, meta, err := forumqueries.ListPosts(ctx, h.DB, id, paging.Parse(r, paging.PostsLimit))
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load posts")
		return
	}
	respond.OK(w, "", respond.M{"posts": posts, "pagination": meta})
}

type contentRequest struct {
	ThreadID string `json:"threadId"`
	Content  string `json:"content"`
}

// HandleCreatePost handles POST /threads/posts/reply.
func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req contentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	threadID, err := primitive.ObjectIDFromHex(req.ThreadID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("threadId must be a valid id"), "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Forum.CreatePost(ctx, threadID, uid, req.Content)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to create post")
		return
	}
	respond.Created(w, "post created", respond.M{"post": p})
}

// HandleUpdatePost handles PUT /posts/{postId}.
func (h *Handler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	h.updatePost(w, r, "postId", false)
}

// HandleUpdateReply handles PUT /replies/{replyId}.
func (h *Handler) HandleUpdateReply(w http.ResponseWriter, r *http.Request) {
	h.updatePost(w, r, "replyId", true)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request, key string, reply bool) {
	id, err := pathID(r, key)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req contentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Forum.UpdatePost(ctx, id, uid, req.Content, reply)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to update post")
		return
	}
	respond.OK(w, "updated", respond.M{"post": p})
}

// HandleDeletePost handles DELETE /posts/{postId}; its replies go with it.
func (h *Handler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Forum.DeletePost(ctx, id, uid); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to delete post")
		return
	}
	respond.OK(w, "post deleted", nil)
}

// HandleDeleteReply handles DELETE /replies/{replyId}.
func (h *Handler) HandleDeleteReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "replyId")
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

	if err := h.Forum.DeleteReply(ctx, id, uid); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to delete reply")
		return
	}
	respond.OK(w, "reply deleted", nil)
}

// ServeReplies handles GET /posts/{postId}/replies.
func (h *Handler) ServeReplies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	replies, err := forumqueries.ListReplies(ctx, h.DB, id)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load replies")
		return
	}
	respond.OK(w, "", respond.M{"replies": replies})
}

// HandleCreateReply handles POST /posts/{postId}/replies.
func (h *Handler) HandleCreateReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postId")
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	uid, err := requester(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	var req contentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Forum.CreateReply(ctx, id, uid, req.Content)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to create reply")
		return
	}
	respond.Created(w, "reply created", respond.M{"reply": p})
}
