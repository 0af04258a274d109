package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/store/audit"
	"github.com/dalemusser/kinshealth/internal/testutil"
)

func TestStore_LogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events := []audit.Event{
		{Category: audit.CategoryAdmin, EventType: audit.EventRoleChanged, UserID: "cg1", Actor: audit.ActorAdminKey, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventUserDeleted, UserID: "cg2", Actor: audit.ActorAdminKey, Success: true},
		{Category: audit.CategoryAccount, EventType: audit.EventAccountCreated, UserID: "cg1", Actor: "cg1", Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{UserID: "cg1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events for cg1 = %d, want 2", len(got))
	}
	for _, e := range got {
		if e.ID.IsZero() || e.Timestamp.IsZero() {
			t.Errorf("id and timestamp should be filled: %+v", e)
		}
	}

	n, err := store.Count(ctx, audit.QueryFilter{Category: audit.CategoryAdmin})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("admin events = %d, want 2", n)
	}
}

func TestStore_QueryNewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Category:  audit.CategoryAdmin,
			EventType: audit.EventJobDeleted,
			TargetID:  string(rune('a' + i)),
			Actor:     audit.ActorAdminKey,
		})
		if err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventJobDeleted, Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0].TargetID != "c" || got[1].TargetID != "b" {
		t.Errorf("order = %+v", got)
	}

	start := base.Add(90 * time.Minute)
	got, _ = store.Query(ctx, audit.QueryFilter{StartTime: &start})
	if len(got) != 1 {
		t.Errorf("events after start = %d, want 1", len(got))
	}

	removed, err := store.DeleteOlderThan(ctx, base.Add(30*time.Minute))
	if err != nil || removed != 1 {
		t.Errorf("DeleteOlderThan = %d, %v", removed, err)
	}
}
