package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agent is a reseller account. Every agent is backed by a User with
// role "agent"; the agent record carries the commercial fields.
type Agent struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID  primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	UserID       primitive.ObjectID  `bson:"user_id" json:"user_id"`
	DisplayName  string              `bson:"display_name" json:"display_name"`
	NameCI       string              `bson:"name_ci" json:"-"`
	Phone        string              `bson:"phone" json:"phone"`
	ReferralCode string              `bson:"referral_code" json:"referral_code"`
	ReferredBy   *primitive.ObjectID `bson:"referred_by,omitempty" json:"referred_by,omitempty"`
	Tier         string              `bson:"tier" json:"tier"`     // basic | wholesale
	Status       string              `bson:"status" json:"status"` // pending | active | suspended
	Balance      Money               `bson:"balance" json:"balance"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Referral links the agent who invited to the agent who signed up.
type Referral struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	ReferrerID  primitive.ObjectID `bson:"referrer_id" json:"referrer_id"`
	ReferredID  primitive.ObjectID `bson:"referred_id" json:"referred_id"`
	Status      string             `bson:"status" json:"status"` // pending | active | paid
	Commission  Money              `bson:"commission" json:"commission"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Order is a data bundle purchase (collection data_orders).
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	AgentID     primitive.ObjectID `bson:"agent_id" json:"agent_id"`
	Reference   string             `bson:"reference" json:"reference"`
	Network     string             `bson:"network" json:"network"`
	Bundle      string             `bson:"bundle" json:"bundle"`
	Recipient   string             `bson:"recipient" json:"recipient"`
	Amount      Money              `bson:"amount" json:"amount"`
	Wholesale   bool               `bson:"wholesale" json:"wholesale"`
	Status      string             `bson:"status" json:"status"` // pending | processing | completed | failed
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Withdrawal is an agent's request to cash out balance.
type Withdrawal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	AgentID     primitive.ObjectID `bson:"agent_id" json:"agent_id"`
	Amount      Money              `bson:"amount" json:"amount"`
	Method      string             `bson:"method" json:"method"` // momo | bank
	Account     string             `bson:"account" json:"account"`
	Status      string             `bson:"status" json:"status"` // pending | approved | rejected | paid
	Note        string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Job is a task posted for agents (installations, promotions, etc.).
type Job struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	Title       string              `bson:"title" json:"title"`
	TitleCI     string              `bson:"title_ci" json:"-"`
	Description string              `bson:"description" json:"description"`
	Category    string              `bson:"category" json:"category"`
	Reward      Money               `bson:"reward" json:"reward"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Status      string              `bson:"status" json:"status"` // open | assigned | done | closed
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}
