// Package status holds the record status values shared across stores.
package status

const (
	Active    = "active"
	Disabled  = "disabled"
	Pending   = "pending"
	Suspended = "suspended"

	Processing = "processing"
	Completed  = "completed"
	Failed     = "failed"

	Approved = "approved"
	Rejected = "rejected"
	Paid     = "paid"

	Open     = "open"
	Assigned = "assigned"
	Done     = "done"
	Closed   = "closed"

	Cancelled = "cancelled"
)
