package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"go.uber.org/zap"
)

func TestOK_MergesPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, "done", M{"count": 3})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != true || body["message"] != "done" || body["count"] != float64(3) {
		t.Errorf("unexpected body %v", body)
	}
}

func TestError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	Error(rec, req, zap.NewNop(), apperr.Store("Failed to load jobs", errors.New("connection reset by peer")), "unused")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Error("driver error leaked to client")
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestError_Classified(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	Error(rec, req, zap.NewNop(), apperr.Forbidden("not yours"), "fallback")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestDecode_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{"))
	var v struct{}
	err := Decode(req, &v)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("Decode malformed: got %v", err)
	}
}
