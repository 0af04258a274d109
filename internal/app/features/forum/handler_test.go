package forum

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/kinshealth/internal/app/system/txn"
	"github.com/dalemusser/kinshealth/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, txn.New(testutil.TestClient(t), zap.NewNop()), zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func as(r *http.Request, userID string) *http.Request {
	return testutil.WithUser(r, testutil.CaregiverUser(userID))
}

func TestThreadLifecycle(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := as(testutil.JSONRequest(t, http.MethodPost, "/threads", map[string]any{
		"title":      "Night shift tips <b>",
		"content":    "<p>Share yours</p><script>alert(1)</script>",
		"categories": []string{"advice"},
	}), "u1")
	rec := testutil.NewRecorder()
	h.HandleCreateThread(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	thread, _ := rec.DecodeJSON(t)["thread"].(map[string]any)
	id, _ := thread["id"].(string)
	require.NotEmpty(t, id)
	assert.NotContains(t, thread["content"], "<script>")

	get := testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/threads/"+id, nil), "threadId", id)
	rec = testutil.NewRecorder()
	h.ServeThread(rec, get)
	rec.AssertStatus(t, http.StatusOK)

	th, err := h.Forum.GetThread(ctx, mustOID(t, id))
	require.NoError(t, err)
	assert.Equal(t, 1, th.Views)

	upd := as(testutil.JSONRequest(t, http.MethodPut, "/threads/"+id, map[string]any{"title": "Hijacked"}), "u2")
	upd = testutil.WithChiURLParam(upd, "threadId", id)
	rec = testutil.NewRecorder()
	h.HandleUpdateThread(rec, upd)
	rec.AssertStatus(t, http.StatusForbidden)

	del := as(httptest.NewRequest(http.MethodDelete, "/threads/"+id, nil), "u1")
	del = testutil.WithChiURLParam(del, "threadId", id)
	rec = testutil.NewRecorder()
	h.HandleDeleteThread(rec, del)
	rec.AssertStatus(t, http.StatusOK)

	assert.Zero(t, fx.Count(ctx, "threads", bson.M{}))
}

func TestPostsAndReplies(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	th := fx.CreateThread(ctx, "u1", "Scheduling", []string{"advice"}, nil)

	req := as(testutil.JSONRequest(t, http.MethodPost, "/threads/posts/reply", map[string]string{
		"threadId": th.ID.Hex(), "content": "Hello @u1",
	}), "u2")
	rec := testutil.NewRecorder()
	h.HandleCreatePost(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
	post, _ := rec.DecodeJSON(t)["post"].(map[string]any)
	postID, _ := post["id"].(string)
	require.NotEmpty(t, postID)
	assert.Equal(t, []any{"u1"}, post["mentions"])

	req = as(testutil.JSONRequest(t, http.MethodPost, "/posts/"+postID+"/replies", map[string]string{"content": "Agreed"}), "u3")
	req = testutil.WithChiURLParam(req, "postId", postID)
	rec = testutil.NewRecorder()
	h.HandleCreateReply(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	list := testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/posts/"+postID+"/replies", nil), "postId", postID)
	rec = testutil.NewRecorder()
	h.ServeReplies(rec, list)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Agreed")

	posts := testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/threads/"+th.ID.Hex()+"/posts", nil), "threadId", th.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServePosts(rec, posts)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Hello @u1")

	del := as(httptest.NewRequest(http.MethodDelete, "/posts/"+postID, nil), "u2")
	del = testutil.WithChiURLParam(del, "postId", postID)
	rec = testutil.NewRecorder()
	h.HandleDeletePost(rec, del)
	rec.AssertStatus(t, http.StatusOK)
	assert.Zero(t, fx.Count(ctx, "posts", bson.M{"threadId": th.ID}))
}

func TestLikes(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	th := fx.CreateThread(ctx, "u1", "Likes", nil, nil)
	id := th.ID.Hex()

	likeReq := func(method, itemType string) *http.Request {
		r := as(httptest.NewRequest(method, "/like/"+itemType+"/"+id, nil), "u2")
		r = testutil.WithChiURLParam(r, "itemType", itemType)
		return testutil.WithChiURLParam(r, "itemId", id)
	}

	rec := testutil.NewRecorder()
	h.HandleLike(rec, likeReq(http.MethodPost, "thread"))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.HandleLike(rec, likeReq(http.MethodPost, "thread"))
	rec.AssertStatus(t, http.StatusConflict)

	status := likeReq(http.MethodGet, "thread")
	status = testutil.WithChiURLParam(status, "userID", "u2")
	rec = testutil.NewRecorder()
	h.ServeLikeStatus(rec, status)
	rec.AssertStatus(t, http.StatusOK)
	assert.Equal(t, true, rec.DecodeJSON(t)["liked"])

	rec = testutil.NewRecorder()
	h.HandleUnlike(rec, likeReq(http.MethodDelete, "thread"))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.HandleLike(rec, likeReq(http.MethodPost, "comment"))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeThreads_Fallback(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateThread(ctx, "u1", "General", []string{"general"}, nil)

	rec := testutil.NewRecorder()
	h.ServeThreads(rec, httptest.NewRequest(http.MethodGet, "/threads?categories=nothing-here", nil))
	rec.AssertStatus(t, http.StatusOK)
	body := rec.DecodeJSON(t)
	assert.Equal(t, true, body["fallback"])
	threads, _ := body["threads"].([]any)
	assert.Len(t, threads, 1)
}
