package agentstore_test

import (
	"errors"
	"testing"

	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := agentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Agent{
		UserID:      primitive.NewObjectID(),
		DisplayName: " Kwame  Data ",
		Phone:       "024 111 2222",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != "pending" {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if created.Tier != agentstore.TierBasic {
		t.Errorf("tier = %q, want basic", created.Tier)
	}
	if len(created.ReferralCode) != 8 {
		t.Errorf("referral code = %q, want 8 chars", created.ReferralCode)
	}
	if created.DisplayName != "Kwame Data" || created.Phone != "0241112222" {
		t.Errorf("unexpected normalized fields %+v", created)
	}

	byCode, err := store.GetByReferralCode(ctx, " "+created.ReferralCode+" ")
	if err != nil {
		t.Fatalf("GetByReferralCode failed: %v", err)
	}
	if byCode.ID != created.ID {
		t.Error("GetByReferralCode returned a different agent")
	}
}

func TestStore_Create_DuplicateUser(t *testing.T) {
	db := testutil.SetupTestDBWithIndexes(t)
	store := agentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	if _, err := store.Create(ctx, models.Agent{UserID: uid, DisplayName: "A"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Agent{UserID: uid, DisplayName: "B"}); !errors.Is(err, agentstore.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_Create_InvalidTier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := agentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Agent{UserID: primitive.NewObjectID(), Tier: "gold"}); err == nil {
		t.Error("expected error for invalid tier")
	}
}

func TestStore_ListAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := agentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	fixtures.CreateAgent(ctx, primitive.NewObjectID(), "Active One", "active")
	fixtures.CreateAgent(ctx, primitive.NewObjectID(), "Active Two", "active")
	fixtures.CreateAgent(ctx, primitive.NewObjectID(), "Waiting", "pending")

	all, err := store.List(ctx, agentstore.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 agents, got %d", len(all))
	}

	n, err := store.Count(ctx, agentstore.ListFilter{Status: "active"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 active agents, got %d", n)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := agentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewFixtures(t, db).CreateAgent(ctx, primitive.NewObjectID(), "A", "pending")
	if err := store.SetStatus(ctx, a.ID, "Active"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.Status != "active" {
		t.Errorf("status = %q, want active", got.Status)
	}
	if err := store.SetStatus(ctx, a.ID, "deleted"); err == nil {
		t.Error("expected error for invalid status")
	}
	if err := store.SetStatus(ctx, primitive.NewObjectID(), "active"); !errors.Is(err, agentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_CreditDebit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := agentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewFixtures(t, db).CreateAgent(ctx, primitive.NewObjectID(), "A", "active")

	amt, _ := models.NewMoney("25.50")
	if err := store.Credit(ctx, a.ID, amt); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if err := store.Debit(ctx, a.ID, models.MoneyFromInt(10)); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.Balance.String() != "15.5" {
		t.Errorf("balance = %s, want 15.5", got.Balance.String())
	}

	if err := store.Debit(ctx, a.ID, models.MoneyFromInt(100)); !errors.Is(err, agentstore.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := store.Debit(ctx, primitive.NewObjectID(), models.MoneyFromInt(1)); !errors.Is(err, agentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := agentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := testutil.NewFixtures(t, db).CreateAgent(ctx, primitive.NewObjectID(), "A", "active")
	n, err := store.Delete(ctx, a.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = (%d, %v), want (1, nil)", n, err)
	}
	if _, err := store.GetByID(ctx, a.ID); !errors.Is(err, agentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
