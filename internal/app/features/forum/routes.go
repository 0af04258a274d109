// internal/app/features/forum/routes.go
package forum

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the forum. Reads are public; writes act as the caller.
func Routes(h *Handler, mgr *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Get("/threads", h.ServeThreads)
	r.Get("/threads/{threadId}", h.ServeThread)
	r.Get("/threads/{threadId}/posts", h.ServePosts)
	r.Get("/posts/{postId}/replies", h.ServeReplies)
	r.Get("/like/{itemType}/{itemId}/{userID}", h.ServeLikeStatus)

	r.Group(func(pr chi.Router) {
		pr.Use(mgr.RequireSignedIn)

		pr.Post("/threads", h.HandleCreateThread)
		pr.Put("/threads/{threadId}", h.HandleUpdateThread)
		pr.Delete("/threads/{threadId}", h.HandleDeleteThread)

		pr.Post("/threads/posts/reply", h.HandleCreatePost)
		pr.Put("/posts/{postId}", h.HandleUpdatePost)
		pr.Delete("/posts/{postId}", h.HandleDeletePost)

		pr.Post("/posts/{postId}/replies", h.HandleCreateReply)
		pr.Put("/replies/{replyId}", h.HandleUpdateReply)
		pr.Delete("/replies/{replyId}", h.HandleDeleteReply)

		pr.Post("/like/{itemType}/{itemId}", h.HandleLike)
		pr.Delete("/like/{itemType}/{itemId}", h.HandleUnlike)
	})

	return r
}
