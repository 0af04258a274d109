package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/kinshealth/internal/app/store/audit"
	"github.com/dalemusser/kinshealth/internal/app/system/auditlog"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("DELETE", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.AdminAction(ctx, req, audit.EventJobDeleted, "", "job1", nil)
	logger.AccountCreated(ctx, req, "cg1", "caregiver")
	logger.AccountDeleted(ctx, req, "cg1")
}

func TestLogger_Destinations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(store, zap.New(core), auditlog.Config{
		Account: auditlog.Off,
		Admin:   auditlog.DB,
	})

	req := httptest.NewRequest("PUT", "/api/v1/admin/users/cg1/role", nil)
	req.Header.Set(auth.AdminKeyHeader, "k")
	req.RemoteAddr = "10.0.0.7:5555"

	logger.AdminAction(ctx, req, audit.EventRoleChanged, "cg1", "", map[string]string{"role": "provider"})
	logger.AccountCreated(ctx, req, "cg1", "caregiver")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: "cg1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("stored events = %d, want 1 (account is off)", len(events))
	}
	e := events[0]
	if e.Actor != audit.ActorAdminKey || e.IP != "10.0.0.7" || e.Details["role"] != "provider" {
		t.Errorf("event = %+v", e)
	}
	if logs.Len() != 0 {
		t.Errorf("db-only setting wrote %d zap entries", logs.Len())
	}
}

func TestLogger_SignedInActorAndZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Account: auditlog.Log})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest("DELETE", "/api/v1/auth/user/cg1", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: "cg1", Role: "caregiver"}))
	logger.AccountDeleted(ctx, req, "cg1")

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("zap entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["actor"]; got != "cg1" {
		t.Errorf("actor = %v", got)
	}
}

func TestValidSetting(t *testing.T) {
	for _, s := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidSetting(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	if auditlog.ValidSetting("everything") {
		t.Error("unexpected valid setting")
	}
}
