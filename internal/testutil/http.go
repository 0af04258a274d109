package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context. It can
// be called repeatedly to add several parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser is the identity a handler test acts as.
type TestUser struct {
	ID    string
	Role  string
	Email string
}

// CaregiverUser returns a caregiver identity for userID.
func CaregiverUser(userID string) TestUser {
	return TestUser{ID: userID, Role: models.RoleCaregiver, Email: userID + "@test.com"}
}

// ProviderUser returns a provider identity for userID.
func ProviderUser(userID string) TestUser {
	return TestUser{ID: userID, Role: models.RoleProvider, Email: userID + "@test.com"}
}

// WithUser puts user into the request context, bypassing token parsing.
func WithUser(r *http.Request, user TestUser) *http.Request {
	u := &auth.User{ID: user.ID, Role: user.Role, Email: user.Email}
	return r.WithContext(auth.WithUser(r.Context(), u))
}

// JSONRequest builds a request with body encoded as JSON.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks that the body contains expected.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into a generic map.
func (r *ResponseRecorder) DecodeJSON(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(r.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, r.Body.String())
	}
	return out
}
