package models

// WholesaleStats is the flat record served by GET /api/stats/wholesale.
type WholesaleStats struct {
	Orders    int64 `json:"orders"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Revenue   Money `json:"revenue"`
}

// AlertCounts is the flat record served by GET /api/alerts/pending.
type AlertCounts struct {
	PendingWithdrawals int64 `json:"pending_withdrawals"`
	PendingOrders      int64 `json:"pending_orders"`
	FailedOrders       int64 `json:"failed_orders"`
	PendingAgents      int64 `json:"pending_agents"`
}

// Total sums every alert.
func (a AlertCounts) Total() int64 {
	return a.PendingWithdrawals + a.PendingOrders + a.FailedOrders + a.PendingAgents
}
