package referrals_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/channelhub/internal/app/features/referrals"
	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	referralstore "github.com/dalemusser/channelhub/internal/app/store/referrals"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func call(fn http.HandlerFunc, body any, id primitive.ObjectID) *httptest.ResponseRecorder {
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/referrals", body), testutil.AdminUser())
	req = testutil.WithChiURLParams(req, "id", id.Hex())
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestHandleStatus_PaidCreditsReferrerOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	inv := &testutil.Invalidations{}
	h := referrals.NewHandler(db, inv, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "kofi", models.RoleAgent, "password1")
	referrer := fx.CreateAgent(ctx, u.ID, "Kofi", status.Active)
	ref, err := referralstore.New(db).Create(ctx, models.Referral{
		ReferrerID: referrer.ID,
		ReferredID: primitive.NewObjectID(),
		Commission: models.MoneyFromInt(5),
	})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}

	if rec := call(h.HandleStatus, map[string]string{"status": "paid"}, ref.ID); rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	a, _ := agentstore.New(db).GetByID(ctx, referrer.ID)
	if a.Balance.String() != "5" {
		t.Errorf("balance = %s, want 5", a.Balance.String())
	}
	if !inv.Has(u.ID.Hex() + " agent:referrals,overview") {
		t.Errorf("referrer tabs not invalidated: %v", inv.Calls())
	}

	if rec := call(h.HandleStatus, map[string]string{"status": "paid"}, ref.ID); rec.Code != http.StatusConflict {
		t.Errorf("second payment: status = %d, want 409", rec.Code)
	}
	if rec := call(h.HandleStatus, map[string]string{"status": "active"}, ref.ID); rec.Code != http.StatusConflict {
		t.Errorf("un-paying: status = %d, want 409", rec.Code)
	}
	a, _ = agentstore.New(db).GetByID(ctx, referrer.ID)
	if a.Balance.String() != "5" {
		t.Errorf("balance after retries = %s, want 5", a.Balance.String())
	}
}

func TestHandleStatus_ActiveAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := referrals.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := referralstore.New(db)
	ref, _ := store.Create(ctx, models.Referral{ReferrerID: primitive.NewObjectID(), ReferredID: primitive.NewObjectID()})

	if rec := call(h.HandleStatus, map[string]string{"status": "active"}, ref.ID); rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	got, _ := store.GetByID(ctx, ref.ID)
	if got.Status != status.Active {
		t.Errorf("status = %q, want active", got.Status)
	}
	if rec := call(h.HandleStatus, map[string]string{"status": "gone"}, ref.ID); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: %d, want 400", rec.Code)
	}
	if rec := call(h.HandleDelete, nil, ref.ID); rec.Code != http.StatusOK {
		t.Errorf("delete: %d", rec.Code)
	}
	if rec := call(h.HandleDelete, nil, ref.ID); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: %d, want 404", rec.Code)
	}
}
