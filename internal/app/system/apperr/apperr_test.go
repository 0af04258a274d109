package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Forbidden("nope"), http.StatusForbidden},
		{Conflict("dup"), http.StatusConflict},
		{Upstream("stripe", errors.New("boom")), http.StatusBadGateway},
		{Store("db", errors.New("boom")), http.StatusInternalServerError},
		{Unauthorized("who"), http.StatusUnauthorized},
		{RateLimited("slow down"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%s: Status() = %d, want %d", tt.err.Kind, got, tt.want)
		}
	}
}

func TestAs_WrappedAndUnclassified(t *testing.T) {
	wrapped := fmt.Errorf("apply: %w", Conflict("already applied"))
	if got := As(wrapped, "x"); got.Kind != KindConflict {
		t.Errorf("As(wrapped).Kind = %s, want %s", got.Kind, KindConflict)
	}

	plain := errors.New("socket closed")
	got := As(plain, "failed to load")
	if got.Kind != KindStore || got.Message != "failed to load" {
		t.Errorf("As(plain) = %+v", got)
	}
	if !errors.Is(got, plain) {
		t.Error("As(plain) should unwrap to the cause")
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(fmt.Errorf("x: %w", NotFound("job")), KindNotFound) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(errors.New("x"), KindNotFound) {
		t.Error("IsKind on a plain error should be false")
	}
}
