package accountstore_test

import (
	"errors"
	"testing"

	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	"github.com/medinotify/portal/internal/domain/models"
	"github.com/medinotify/portal/internal/testutil"
)

func TestStore_Upsert_And_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct := testutil.PatientAccount("uid-100")
	acct.Email = "  Patient@Example.Com "

	saved, err := store.Upsert(ctx, accountstore.CollUsers, acct)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if saved.Email != "patient@example.com" {
		t.Errorf("Email not normalized: got %q", saved.Email)
	}

	got, err := store.GetByID(ctx, accountstore.CollUsers, "uid-100")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "patient@example.com" {
		t.Errorf("Email: got %q", got.Email)
	}
	if got.Role != models.RolePatient {
		t.Errorf("Role: got %q, want %q", got.Role, models.RolePatient)
	}
}

func TestStore_Upsert_Redelivery_Converges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := testutil.PatientAccount("uid-200")
	first.DisplayName = "Old Name"
	if _, err := store.Upsert(ctx, accountstore.CollUsers, first); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	// A redelivered event with newer data replaces the document.
	second := testutil.PatientAccount("uid-200")
	second.DisplayName = "New Name"
	if _, err := store.Upsert(ctx, accountstore.CollUsers, second); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := store.GetByID(ctx, accountstore.CollUsers, "uid-200")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.DisplayName != "New Name" {
		t.Errorf("DisplayName: got %q, want %q", got.DisplayName, "New Name")
	}

	count, err := store.Count(ctx, accountstore.CollUsers)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 account after redelivery, got %d", count)
	}
}

func TestStore_UnknownCollection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Upsert(ctx, "ghosts", testutil.PatientAccount("uid-300"))
	if !errors.Is(err, accountstore.ErrUnknownCollection) {
		t.Errorf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestStore_FindByEmail_AcrossCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tech := testutil.StaffAccount("uid-400", models.RoleMedicalTechnologist)
	tech.Email = "tech@example.com"
	if _, err := store.Upsert(ctx, accountstore.CollMedicalTechnologists, tech); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, coll, err := store.FindByEmail(ctx, "TECH@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if coll != accountstore.CollMedicalTechnologists {
		t.Errorf("collection: got %q, want %q", coll, accountstore.CollMedicalTechnologists)
	}
	if got.ID != "uid-400" {
		t.Errorf("ID: got %q, want %q", got.ID, "uid-400")
	}
}

func TestStore_FindByEmail_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _, err := store.FindByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, accountstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Upsert(ctx, accountstore.CollUsers, testutil.PatientAccount("uid-500")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := store.SetStatus(ctx, accountstore.CollUsers, "uid-500", "Disabled"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	got, err := store.GetByID(ctx, accountstore.CollUsers, "uid-500")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != "disabled" {
		t.Errorf("Status: got %q, want %q", got.Status, "disabled")
	}

	err = store.SetStatus(ctx, accountstore.CollUsers, "missing", "disabled")
	if !errors.Is(err, accountstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing account, got %v", err)
	}
}
