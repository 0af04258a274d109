package contactstore_test

import (
	"testing"
	"time"

	contactstore "github.com/dalemusser/kinshealth/internal/app/store/contacts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/dalemusser/kinshealth/internal/testutil"
)

func TestStore_UpsertAndBilling(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.UpsertByEmail(ctx, models.Contact{Email: " Pat@Example.com ", UserID: "p1", Role: models.RoleProvider, CustomerID: "cus_1"})
	if err != nil {
		t.Fatalf("UpsertByEmail failed: %v", err)
	}
	// second upsert must not create another document
	if err := store.UpsertByEmail(ctx, models.Contact{Email: "pat@example.com", UserID: "p1"}); err != nil {
		t.Fatalf("UpsertByEmail failed: %v", err)
	}

	c, err := store.GetByEmail(ctx, "PAT@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if c.CustomerID != "cus_1" || c.Subscribed {
		t.Errorf("unexpected contact: %+v", c)
	}

	end := time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second)
	err = store.UpdateBilling(ctx, "cus_1", contactstore.Billing{Subscribed: false, Trial: models.TrialActive, TrialEndDate: &end, SetTrialEnd: true})
	if err != nil {
		t.Fatalf("UpdateBilling failed: %v", err)
	}
	c, _ = store.GetByCustomerID(ctx, "cus_1")
	if c.Trial != models.TrialActive || c.TrialEndDate == nil || !c.TrialEndDate.Equal(end) {
		t.Errorf("billing not applied: %+v", c)
	}

	if err := store.UpdateBilling(ctx, "cus_missing", contactstore.Billing{}); err != contactstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
