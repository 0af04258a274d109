package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestRun_NilClientRunsDirectly(t *testing.T) {
	var r *Runner
	calls := 0
	err := r.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("Run(nil runner) err=%v calls=%d", err, calls)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	r := New(nil, nil)
	want := errors.New("already applied")
	got := r.Run(context.Background(), func(ctx context.Context) error { return want })
	if !errors.Is(got, want) {
		t.Errorf("Run() = %v, want %v", got, want)
	}
	if !r.Supported() {
		t.Error("an application error must not disable transactions")
	}
}

func TestIsNotSupported(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":                   {nil, false},
		"plain failure":         {errors.New("duplicate key on jobs"), false},
		"standalone code 20":    {mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		"code 51":               {mongo.CommandError{Code: 51, Message: "x"}, true},
		"code 263":              {mongo.CommandError{Code: 263, Message: "x"}, true},
		"unrelated code":        {mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		"replica set wording":   {errors.New("transaction requires a replica set"), true},
		"session wording":       {errors.New("Sessions are NOT SUPPORTED by this deployment"), true},
		"single keyword only":   {errors.New("transaction aborted by caller"), false},
		"illegal op in commit":  {errors.New("Illegal Operation during Transaction commit"), true},
		"wrapped command error": {fmt.Errorf("apply: %w", mongo.CommandError{Code: 20}), true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := IsNotSupported(tc.err); got != tc.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
