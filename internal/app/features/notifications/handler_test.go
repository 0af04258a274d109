package notifications

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/kinshealth/internal/testutil"
	"go.uber.org/zap"
)

func TestSendFetchMark(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, zap.NewNop())

	send := testutil.JSONRequest(t, http.MethodPost, "/send", map[string]any{
		"type": "message", "toUserId": "cg1", "message": "Interview tomorrow?", "senderType": "provider",
		"metadata": map[string]string{"jobId": "abc"},
	})
	send = testutil.WithUser(send, testutil.ProviderUser("prov1"))
	rec := testutil.NewRecorder()
	h.HandleSend(rec, send)
	rec.AssertStatus(t, http.StatusCreated)

	n, _ := rec.DecodeJSON(t)["notification"].(map[string]any)
	id, _ := n["id"].(string)
	if id == "" || n["fromUserId"] != "prov1" {
		t.Fatalf("unexpected notification: %v", n)
	}

	fetch := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/fetch?userId=cg1&unreadOnly=true", nil), testutil.CaregiverUser("cg1"))
	rec = testutil.NewRecorder()
	h.ServeFetch(rec, fetch)
	rec.AssertStatus(t, http.StatusOK)
	if got := rec.DecodeJSON(t)["unreadCount"]; got != float64(1) {
		t.Errorf("unreadCount = %v, want 1", got)
	}

	mark := testutil.JSONRequest(t, http.MethodPost, "/mark-as-read", map[string]string{"notificationId": id})
	mark = testutil.WithUser(mark, testutil.CaregiverUser("cg1"))
	rec = testutil.NewRecorder()
	h.HandleMarkAsRead(rec, mark)
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.ServeFetch(rec, fetch)
	if got := rec.DecodeJSON(t)["unreadCount"]; got != float64(0) {
		t.Errorf("unreadCount after mark = %v, want 0", got)
	}
}

func TestSend_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, zap.NewNop())

	req := testutil.JSONRequest(t, http.MethodPost, "/send", map[string]any{"type": "message", "toUserId": "cg1"})
	req = testutil.WithUser(req, testutil.ProviderUser("prov1"))
	rec := testutil.NewRecorder()
	h.HandleSend(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)

	req = testutil.JSONRequest(t, http.MethodPost, "/send", map[string]any{
		"type": "message", "toUserId": "cg1", "fromUserId": "spoofed", "message": "hi", "senderType": "provider",
	})
	req = testutil.WithUser(req, testutil.ProviderUser("prov1"))
	rec = testutil.NewRecorder()
	h.HandleSend(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestFetch_OtherUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, zap.NewNop())

	req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/fetch?userId=cg1", nil), testutil.CaregiverUser("cg2"))
	rec := testutil.NewRecorder()
	h.ServeFetch(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}
