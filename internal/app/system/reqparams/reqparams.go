// Package reqparams reads typed values from the query string.
package reqparams

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
)

// List accepts both repeated keys (?k=a&k=b) and comma lists (?k=a,b).
// Blank items are dropped.
func List(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Float parses key. ok is false when absent or malformed.
func Float(r *http.Request, key string) (float64, bool) {
	s := query.Get(r, key)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int parses key. ok is false when absent or malformed.
func Int(r *http.Request, key string) (int, bool) {
	s := query.Get(r, key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool is true for "1", "true" and "yes".
func Bool(r *http.Request, key string) bool {
	switch strings.ToLower(query.Get(r, key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
