package validators

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestServerSays(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int32
		want bool
	}{
		{"nil", nil, codeNamespaceExists, false},
		{"by code", mongo.CommandError{Code: 48, Message: "x"}, codeNamespaceExists, true},
		{"by message", errors.New("Collection already exists. NS: kh.users"), 0, true},
		{"unrelated", mongo.CommandError{Code: 13, Message: "unauthorized"}, codeNamespaceExists, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := serverSays(tc.err, tc.code, "already exists"); got != tc.want {
				t.Errorf("serverSays = %v, want %v", got, tc.want)
			}
		})
	}
}
