package resultstore_test

import (
	"testing"

	resultstore "github.com/medinotify/portal/internal/app/store/results"
	"github.com/medinotify/portal/internal/domain/models"
	"github.com/medinotify/portal/internal/testutil"
)

func TestStore_Create_RequiresPatientAndTest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resultstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Result{TestName: "CBC"}); err == nil {
		t.Error("expected error for missing patient id")
	}
	if _, err := store.Create(ctx, models.Result{PatientID: "uid-1"}); err == nil {
		t.Error("expected error for missing test name")
	}
}

func TestStore_Create_And_ListByPatient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resultstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r, err := store.Create(ctx, testutil.ResultFixture("uid-1", "CBC"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if r.Status != models.ResultCompleted {
		t.Errorf("Status: got %q, want %q", r.Status, models.ResultCompleted)
	}

	// Another patient's result must not leak into the list.
	if _, err := store.Create(ctx, testutil.ResultFixture("uid-2", "Urinalysis")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := store.ListByPatient(ctx, "uid-1", 0)
	if err != nil {
		t.Fatalf("ListByPatient failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 result, got %d", len(list))
	}
	if list[0].TestName != "CBC" {
		t.Errorf("TestName: got %q, want %q", list[0].TestName, "CBC")
	}
}

func TestStore_ListRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resultstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"CBC", "Urinalysis", "Lipid Panel"} {
		if _, err := store.Create(ctx, testutil.ResultFixture("uid-1", name)); err != nil {
			t.Fatalf("Create %q failed: %v", name, err)
		}
	}

	list, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 results with limit, got %d", len(list))
	}
	if list[0].TestName != "Lipid Panel" {
		t.Errorf("newest first: got %q, want %q", list[0].TestName, "Lipid Panel")
	}
}
