package caregivers

import (
	"net/http"
	"net/http/httptest"
	"strings"
)

func httptestGet(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
