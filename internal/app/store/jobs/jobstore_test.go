package jobstore_test

import (
	"testing"
	"time"

	jobstore "github.com/dalemusser/kinshealth/internal/app/store/jobs"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/dalemusser/kinshealth/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Upsert_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	in := models.Job{
		UserID:       "p1",
		Title:        "Overnight companion",
		City:         "Tacoma",
		Zipcode:      "98402",
		Location:     models.NewPoint(47.25, -122.44),
		Licenses:     []string{"CNA", "HHA"},
		Schedule:     "night",
		MinHours:     20,
		Compensation: "$25/hr",
		Mobility:     models.MobilityCarNeeded,
	}
	res, err := store.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !res.Inserted || !res.Published {
		t.Errorf("new public job: inserted=%v published=%v", res.Inserted, res.Published)
	}

	got, err := store.Get(ctx, res.Job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != in.Title || got.Schedule != in.Schedule || got.MinHours != in.MinHours {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Licenses) != 2 || got.Mobility != in.Mobility || !got.Location.Valid() {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Created.IsZero() || got.Updated.IsZero() {
		t.Error("timestamps not set")
	}

	created := got.Created
	time.Sleep(5 * time.Millisecond)
	in.ID = got.ID
	in.Title = "Overnight companion (updated)"
	res, err = store.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("update Upsert failed: %v", err)
	}
	if res.Inserted || res.Published {
		t.Errorf("update of a public job: inserted=%v published=%v", res.Inserted, res.Published)
	}
	if !res.Job.Created.Equal(created) {
		t.Error("created must not change on update")
	}
	if res.Job.Title != in.Title {
		t.Errorf("title not updated: %q", res.Job.Title)
	}
}

func TestStore_Upsert_DraftToPublished(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := store.Upsert(ctx, models.Job{UserID: "p1", Title: "Draft", Draft: true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if res.Published {
		t.Error("a draft is not published")
	}
	job := res.Job
	job.Draft = false
	res, err = store.Upsert(ctx, job)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !res.Published {
		t.Error("draft to public should report Published")
	}
}

func TestStore_Upsert_OtherOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	j := fixtures.CreateJob(ctx, "p1", "Mine")
	_, err := store.Upsert(ctx, models.Job{ID: j.ID, UserID: "p2", Title: "Hijack"})
	if err != jobstore.ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestStore_AddApplicant_Conflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	j := fixtures.CreateJob(ctx, "p1", "Day shift")
	a := models.Applicant{UserID: "cg1", Name: "Ana", AppliedOn: time.Now().UTC()}
	if err := store.AddApplicant(ctx, j.ID, a); err != nil {
		t.Fatalf("AddApplicant failed: %v", err)
	}
	if err := store.AddApplicant(ctx, j.ID, a); err != jobstore.ErrAlreadyApplied {
		t.Errorf("expected ErrAlreadyApplied, got %v", err)
	}
	if err := store.AddApplicant(ctx, primitive.NewObjectID(), a); err != jobstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if len(got.Applicants) != 1 || !got.HasApplicant("cg1") {
		t.Errorf("unexpected applicants: %+v", got.Applicants)
	}
}

func TestStore_DeleteOwned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	j := fixtures.CreateJob(ctx, "p1", "To delete")
	if err := store.DeleteOwned(ctx, j.ID, "p2"); err != jobstore.ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := store.DeleteOwned(ctx, j.ID, "p1"); err != nil {
		t.Fatalf("DeleteOwned failed: %v", err)
	}
	if _, err := store.Get(ctx, j.ID); err != jobstore.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_ListByOwner_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	fixtures.CreateJob(ctx, "p1", "old", testutil.JobCreated(base))
	fixtures.CreateJob(ctx, "p1", "new", testutil.JobCreated(base.Add(30*time.Minute)))
	fixtures.CreateJob(ctx, "p2", "other")

	jobs, err := store.ListByOwner(ctx, "p1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(jobs) != 2 || jobs[0].Title != "new" {
		t.Errorf("unexpected order: %+v", jobs)
	}
}
