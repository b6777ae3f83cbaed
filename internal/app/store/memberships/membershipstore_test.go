package membershipstore_test

import (
	"errors"
	"testing"

	membershipstore "github.com/dalemusser/channelhub/internal/app/store/memberships"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_SubscribeUnsubscribe(t *testing.T) {
	db := testutil.SetupTestDBWithIndexes(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ch, user := primitive.NewObjectID(), primitive.NewObjectID()

	m, err := store.Subscribe(ctx, ch, user, "")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if m.Status != "active" || m.Plan != "free" {
		t.Errorf("unexpected membership %+v", m)
	}

	ok, err := store.IsSubscribed(ctx, ch, user)
	if err != nil || !ok {
		t.Fatalf("IsSubscribed = (%v, %v), want (true, nil)", ok, err)
	}

	if err := store.Unsubscribe(ctx, ch, user); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if ok, _ := store.IsSubscribed(ctx, ch, user); ok {
		t.Error("expected no active subscription after Unsubscribe")
	}
	if err := store.Unsubscribe(ctx, ch, user); !errors.Is(err, membershipstore.ErrNotSubscribed) {
		t.Errorf("expected ErrNotSubscribed, got %v", err)
	}

	again, err := store.Subscribe(ctx, ch, user, "paid")
	if err != nil {
		t.Fatalf("re-Subscribe failed: %v", err)
	}
	if again.ID != m.ID {
		t.Error("expected re-subscribe to reuse the membership document")
	}
	if again.Plan != "paid" || again.Status != "active" {
		t.Errorf("unexpected membership %+v", again)
	}
}

func TestStore_Subscribe_BadPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Subscribe(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "gold"); err == nil {
		t.Error("expected error for bad plan")
	}
}

func TestStore_ChannelIDsAndCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	user := primitive.NewObjectID()
	ch1, ch2 := primitive.NewObjectID(), primitive.NewObjectID()
	fixtures.Subscribe(ctx, ch1, user)
	fixtures.Subscribe(ctx, ch2, user)
	fixtures.Subscribe(ctx, ch1, primitive.NewObjectID())

	ids, err := store.ChannelIDs(ctx, user)
	if err != nil {
		t.Fatalf("ChannelIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 channels, got %d", len(ids))
	}

	n, err := store.CountByChannel(ctx, ch1)
	if err != nil {
		t.Fatalf("CountByChannel failed: %v", err)
	}
	if n != 2 {
		t.Errorf("ch1 subscribers = %d, want 2", n)
	}

	subs, err := store.ListByChannel(ctx, ch1)
	if err != nil {
		t.Fatalf("ListByChannel failed: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("ListByChannel = %d, want 2", len(subs))
	}

	none, err := store.ChannelIDs(ctx, primitive.NewObjectID())
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("ChannelIDs(stranger) = (%v, %v), want empty", none, err)
	}
}
