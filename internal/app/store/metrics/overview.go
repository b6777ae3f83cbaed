package metricsstore

import (
	"context"
	"errors"

	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	orderstore "github.com/dalemusser/channelhub/internal/app/store/orders"
	referralstore "github.com/dalemusser/channelhub/internal/app/store/referrals"
	withdrawalstore "github.com/dalemusser/channelhub/internal/app/store/withdrawals"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Counter names.
const (
	CAgents             = "agents"
	CActiveAgents       = "active_agents"
	CPendingAgents      = "pending_agents"
	COrders             = "orders"
	CPendingOrders      = "pending_orders"
	CCompletedOrders    = "completed_orders"
	CFailedOrders       = "failed_orders"
	CWithdrawals        = "withdrawals"
	CPendingWithdrawals = "pending_withdrawals"
	CReferrals          = "referrals"
	CRevenue            = "revenue"
	CWholesaleOrders    = "wholesale_orders"
	CWholesaleCompleted = "wholesale_completed"
	CWholesalePending   = "wholesale_pending"
	CWholesaleRevenue   = "wholesale_revenue"
	CPendingAlerts      = "pending_alerts"
	CBalance            = "balance"
)

// DashboardStats is the flat overview record behind the admin and agent
// overview tabs.
type DashboardStats struct {
	Agents             int64        `json:"agents"`
	ActiveAgents       int64        `json:"active_agents"`
	Orders             int64        `json:"orders"`
	PendingOrders      int64        `json:"pending_orders"`
	CompletedOrders    int64        `json:"completed_orders"`
	Withdrawals        int64        `json:"withdrawals"`
	PendingWithdrawals int64        `json:"pending_withdrawals"`
	Referrals          int64        `json:"referrals"`
	Revenue            models.Money `json:"revenue"`
	WholesaleOrders    int64        `json:"wholesale_orders"`
	WholesaleRevenue   models.Money `json:"wholesale_revenue"`
	PendingAlerts      int64        `json:"pending_alerts"`
	Balance            models.Money `json:"balance"`
	// Failed names the counters shown as zero because their query failed.
	Failed []string `json:"failed"`
}

// Remote is the counter endpoint client. statsclient.Client satisfies it.
type Remote interface {
	Wholesale(ctx context.Context, workspaceID primitive.ObjectID) (models.WholesaleStats, bool)
	PendingAlerts(ctx context.Context, workspaceID primitive.ObjectID) (models.AlertCounts, bool)
}

var errRemote = errors.New("remote counter unavailable")

// Service builds overviews from the backing store and, when configured,
// the remote counter endpoints.
type Service struct {
	agents      *agentstore.Store
	orders      *orderstore.Store
	withdrawals *withdrawalstore.Store
	referrals   *referralstore.Store
	remote      Remote
	log         *zap.Logger
}

// NewService wires the stores. remote may be nil, in which case wholesale
// and alert counters are computed from the database.
func NewService(db *mongo.Database, remote Remote, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		agents:      agentstore.New(db),
		orders:      orderstore.New(db),
		withdrawals: withdrawalstore.New(db),
		referrals:   referralstore.New(db),
		remote:      remote,
		log:         logger,
	}
}

// AdminOverview covers a whole workspace; a zero workspaceID covers all.
func (s *Service) AdminOverview(ctx context.Context, workspaceID primitive.ObjectID) DashboardStats {
	ws := workspaceID
	wholesale := true
	counters := []Counter{
		CountOf(CAgents, func(ctx context.Context) (int64, error) {
			return s.agents.Count(ctx, agentstore.ListFilter{WorkspaceID: ws})
		}),
		CountOf(CActiveAgents, func(ctx context.Context) (int64, error) {
			return s.agents.Count(ctx, agentstore.ListFilter{WorkspaceID: ws, Status: status.Active})
		}),
		CountOf(COrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{WorkspaceID: ws})
		}),
		CountOf(CPendingOrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{WorkspaceID: ws, Status: status.Pending})
		}),
		CountOf(CCompletedOrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{WorkspaceID: ws, Status: status.Completed})
		}),
		CountOf(CWithdrawals, func(ctx context.Context) (int64, error) {
			return s.withdrawals.Count(ctx, withdrawalstore.ListFilter{WorkspaceID: ws})
		}),
		CountOf(CPendingWithdrawals, func(ctx context.Context) (int64, error) {
			return s.withdrawals.Count(ctx, withdrawalstore.ListFilter{WorkspaceID: ws, Status: status.Pending})
		}),
		CountOf(CReferrals, func(ctx context.Context) (int64, error) {
			return s.referrals.Count(ctx, referralstore.ListFilter{WorkspaceID: ws})
		}),
		AmountOf(CRevenue, func(ctx context.Context) (models.Money, error) {
			return s.orders.Revenue(ctx, orderstore.ListFilter{WorkspaceID: ws})
		}),
	}

	if s.remote != nil {
		counters = append(counters, s.remoteCounters(ws)...)
	} else {
		counters = append(counters,
			CountOf(CWholesaleOrders, func(ctx context.Context) (int64, error) {
				return s.orders.Count(ctx, orderstore.ListFilter{WorkspaceID: ws, Wholesale: &wholesale})
			}),
			AmountOf(CWholesaleRevenue, func(ctx context.Context) (models.Money, error) {
				return s.orders.Revenue(ctx, orderstore.ListFilter{WorkspaceID: ws, Wholesale: &wholesale})
			}),
			CountOf(CPendingAlerts, func(ctx context.Context) (int64, error) {
				a := s.PendingAlerts(ctx, ws)
				return a.Total(), nil
			}),
		)
	}

	st := Assemble(ctx, counters, s.log)
	return DashboardStats{
		Agents:             st.N(CAgents),
		ActiveAgents:       st.N(CActiveAgents),
		Orders:             st.N(COrders),
		PendingOrders:      st.N(CPendingOrders),
		CompletedOrders:    st.N(CCompletedOrders),
		Withdrawals:        st.N(CWithdrawals),
		PendingWithdrawals: st.N(CPendingWithdrawals),
		Referrals:          st.N(CReferrals),
		Revenue:            st.Amount(CRevenue),
		WholesaleOrders:    st.N(CWholesaleOrders),
		WholesaleRevenue:   st.Amount(CWholesaleRevenue),
		PendingAlerts:      st.N(CPendingAlerts),
		Balance:            models.MoneyFromInt(0),
		Failed:             st.Failed,
	}
}

// remoteCounters reads the wholesale and alert records over HTTP. The
// wholesale record is fetched once per counter since each counter is an
// independent sub-query. The remote side counts ws only.
func (s *Service) remoteCounters(ws primitive.ObjectID) []Counter {
	return []Counter{
		CountOf(CWholesaleOrders, func(ctx context.Context) (int64, error) {
			w, ok := s.remote.Wholesale(ctx, ws)
			if !ok {
				return 0, errRemote
			}
			return w.Orders, nil
		}),
		AmountOf(CWholesaleRevenue, func(ctx context.Context) (models.Money, error) {
			w, ok := s.remote.Wholesale(ctx, ws)
			if !ok {
				return models.Money{}, errRemote
			}
			return w.Revenue, nil
		}),
		CountOf(CPendingAlerts, func(ctx context.Context) (int64, error) {
			a, ok := s.remote.PendingAlerts(ctx, ws)
			if !ok {
				return 0, errRemote
			}
			return a.Total(), nil
		}),
	}
}

// AgentOverview covers one agent's own activity.
func (s *Service) AgentOverview(ctx context.Context, agentID primitive.ObjectID) DashboardStats {
	id := agentID
	st := Assemble(ctx, []Counter{
		CountOf(COrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{AgentID: id})
		}),
		CountOf(CPendingOrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{AgentID: id, Status: status.Pending})
		}),
		CountOf(CCompletedOrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{AgentID: id, Status: status.Completed})
		}),
		CountOf(CWithdrawals, func(ctx context.Context) (int64, error) {
			return s.withdrawals.Count(ctx, withdrawalstore.ListFilter{AgentID: id})
		}),
		CountOf(CPendingWithdrawals, func(ctx context.Context) (int64, error) {
			return s.withdrawals.Count(ctx, withdrawalstore.ListFilter{AgentID: id, Status: status.Pending})
		}),
		CountOf(CReferrals, func(ctx context.Context) (int64, error) {
			return s.referrals.Count(ctx, referralstore.ListFilter{ReferrerID: id})
		}),
		AmountOf(CRevenue, func(ctx context.Context) (models.Money, error) {
			return s.orders.Revenue(ctx, orderstore.ListFilter{AgentID: id})
		}),
		AmountOf(CBalance, func(ctx context.Context) (models.Money, error) {
			a, err := s.agents.GetByID(ctx, id)
			if err != nil {
				return models.Money{}, err
			}
			return a.Balance, nil
		}),
	}, s.log)

	return DashboardStats{
		Orders:             st.N(COrders),
		PendingOrders:      st.N(CPendingOrders),
		CompletedOrders:    st.N(CCompletedOrders),
		Withdrawals:        st.N(CWithdrawals),
		PendingWithdrawals: st.N(CPendingWithdrawals),
		Referrals:          st.N(CReferrals),
		Revenue:            st.Amount(CRevenue),
		WholesaleRevenue:   models.MoneyFromInt(0),
		Balance:            st.Amount(CBalance),
		Failed:             st.Failed,
	}
}

// Wholesale computes the wholesale counter record from the database.
func (s *Service) Wholesale(ctx context.Context, workspaceID primitive.ObjectID) models.WholesaleStats {
	ws := workspaceID
	wholesale := true
	filter := func(st string) orderstore.ListFilter {
		return orderstore.ListFilter{WorkspaceID: ws, Wholesale: &wholesale, Status: st}
	}
	st := Assemble(ctx, []Counter{
		CountOf(CWholesaleOrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, filter(""))
		}),
		CountOf(CWholesaleCompleted, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, filter(status.Completed))
		}),
		CountOf(CWholesalePending, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, filter(status.Pending))
		}),
		AmountOf(CWholesaleRevenue, func(ctx context.Context) (models.Money, error) {
			return s.orders.Revenue(ctx, filter(""))
		}),
	}, s.log)
	return models.WholesaleStats{
		Orders:    st.N(CWholesaleOrders),
		Completed: st.N(CWholesaleCompleted),
		Pending:   st.N(CWholesalePending),
		Revenue:   st.Amount(CWholesaleRevenue),
	}
}

// PendingAlerts computes the alert counter record from the database.
func (s *Service) PendingAlerts(ctx context.Context, workspaceID primitive.ObjectID) models.AlertCounts {
	ws := workspaceID
	st := Assemble(ctx, []Counter{
		CountOf(CPendingWithdrawals, func(ctx context.Context) (int64, error) {
			return s.withdrawals.Count(ctx, withdrawalstore.ListFilter{WorkspaceID: ws, Status: status.Pending})
		}),
		CountOf(CPendingOrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{WorkspaceID: ws, Status: status.Pending})
		}),
		CountOf(CFailedOrders, func(ctx context.Context) (int64, error) {
			return s.orders.Count(ctx, orderstore.ListFilter{WorkspaceID: ws, Status: status.Failed})
		}),
		CountOf(CPendingAgents, func(ctx context.Context) (int64, error) {
			return s.agents.Count(ctx, agentstore.ListFilter{WorkspaceID: ws, Status: status.Pending})
		}),
	}, s.log)
	return models.AlertCounts{
		PendingWithdrawals: st.N(CPendingWithdrawals),
		PendingOrders:      st.N(CPendingOrders),
		FailedOrders:       st.N(CFailedOrders),
		PendingAgents:      st.N(CPendingAgents),
	}
}
