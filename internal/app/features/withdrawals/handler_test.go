package withdrawals_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/channelhub/internal/app/features/withdrawals"
	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	withdrawalstore "github.com/dalemusser/channelhub/internal/app/store/withdrawals"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	h      *withdrawals.Handler
	inv    *testutil.Invalidations
	fx     *testutil.Fixtures
	agents *agentstore.Store
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	inv := &testutil.Invalidations{}
	return env{
		h:      withdrawals.NewHandler(db, inv, zap.NewNop()),
		inv:    inv,
		fx:     testutil.NewFixtures(t, db),
		agents: agentstore.New(db),
	}
}

func call(fn http.HandlerFunc, user testutil.TestUser, body any, id primitive.ObjectID) *httptest.ResponseRecorder {
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/withdrawals", body), user)
	if !id.IsZero() {
		req = testutil.WithChiURLParams(req, "id", id.Hex())
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

// fundedAgent creates an active agent holding balance.
func (e env) fundedAgent(t *testing.T, login string, balance int64) (models.User, models.Agent) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateUser(ctx, login, models.RoleAgent, "password1")
	a := e.fx.CreateAgent(ctx, u.ID, login, status.Active)
	if balance > 0 {
		if err := e.agents.Credit(ctx, a.ID, models.MoneyFromInt(balance)); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}
	return u, a
}

func (e env) balance(t *testing.T, id primitive.ObjectID) string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a, err := e.agents.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	return a.Balance.String()
}

func TestHandleCreate_ChecksBalance(t *testing.T) {
	e := newEnv(t)
	u, a := e.fundedAgent(t, "ama", 50)
	agent := testutil.AgentUser(u.ID)

	rec := call(e.h.HandleCreate, agent, map[string]string{"amount": "80", "method": "momo", "account": "0241234567"}, primitive.NilObjectID)
	if rec.Code != http.StatusConflict {
		t.Errorf("over balance: status = %d, want 409", rec.Code)
	}
	rec = call(e.h.HandleCreate, agent, map[string]string{"amount": "30", "method": "momo", "account": "0241234567"}, primitive.NilObjectID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if got := e.balance(t, a.ID); got != "50" {
		t.Errorf("balance after request = %s, want 50 (debited on approval)", got)
	}
	if !e.inv.Has(u.ID.Hex() + " agent:withdrawals,overview") {
		t.Errorf("agent tabs not invalidated: %v", e.inv.Calls())
	}
}

func TestApproveThenReject_RestoresBalance(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, a := e.fundedAgent(t, "kofi", 100)
	wd := e.fx.CreateWithdrawal(ctx, a.ID, 40, status.Pending)
	admin := testutil.AdminUser()

	if rec := call(e.h.HandleApprove, admin, nil, wd.ID); rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d body %s", rec.Code, rec.Body.String())
	}
	if got := e.balance(t, a.ID); got != "60" {
		t.Errorf("balance after approve = %s, want 60", got)
	}
	if rec := call(e.h.HandleReject, admin, map[string]string{"note": "wrong account"}, wd.ID); rec.Code != http.StatusOK {
		t.Fatalf("reject: status = %d body %s", rec.Code, rec.Body.String())
	}
	if got := e.balance(t, a.ID); got != "100" {
		t.Errorf("balance after reject = %s, want 100", got)
	}
	got, _ := withdrawalstore.New(e.fx.DB()).GetByID(ctx, wd.ID)
	if got.Status != status.Rejected || got.Note != "wrong account" {
		t.Errorf("withdrawal = %+v", got)
	}
}

func TestApprove_InsufficientBalance(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, a := e.fundedAgent(t, "esi", 10)
	wd := e.fx.CreateWithdrawal(ctx, a.ID, 40, status.Pending)

	rec := call(e.h.HandleApprove, testutil.AdminUser(), nil, wd.ID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	got, _ := withdrawalstore.New(e.fx.DB()).GetByID(ctx, wd.ID)
	if got.Status != status.Pending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if b := e.balance(t, a.ID); b != "10" {
		t.Errorf("balance = %s, want 10", b)
	}
}

func TestPaid_RequiresApproval(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, a := e.fundedAgent(t, "yaw", 100)
	wd := e.fx.CreateWithdrawal(ctx, a.ID, 40, status.Pending)
	admin := testutil.AdminUser()

	if rec := call(e.h.HandlePaid, admin, nil, wd.ID); rec.Code != http.StatusConflict {
		t.Errorf("pending -> paid: status = %d, want 409", rec.Code)
	}
	call(e.h.HandleApprove, admin, nil, wd.ID)
	if rec := call(e.h.HandlePaid, admin, nil, wd.ID); rec.Code != http.StatusOK {
		t.Errorf("approved -> paid: status = %d, want 200", rec.Code)
	}
	if got := e.balance(t, a.ID); got != "60" {
		t.Errorf("balance = %s, want 60", got)
	}
}

func TestHandleCancel(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, a := e.fundedAgent(t, "abena", 100)
	mine := e.fx.CreateWithdrawal(ctx, a.ID, 10, status.Pending)
	approved := e.fx.CreateWithdrawal(ctx, a.ID, 10, status.Approved)
	agent := testutil.AgentUser(u.ID)

	if rec := call(e.h.HandleCancel, testutil.AgentUser(primitive.NewObjectID()), nil, mine.ID); rec.Code != http.StatusNotFound {
		t.Errorf("stranger: status = %d, want 404", rec.Code)
	}
	if rec := call(e.h.HandleCancel, agent, nil, approved.ID); rec.Code != http.StatusConflict {
		t.Errorf("approved: status = %d, want 409", rec.Code)
	}
	if rec := call(e.h.HandleCancel, agent, nil, mine.ID); rec.Code != http.StatusOK {
		t.Errorf("own pending: status = %d, want 200", rec.Code)
	}
}
