// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles understood by the dashboards.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
	RoleTeacher    = "teacher"
	RoleMember     = "member"
)

// IsRole reports whether r is one of the known roles.
func IsRole(r string) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAgent, RoleTeacher, RoleMember:
		return true
	}
	return false
}

// User is anyone who can sign in: admins, agents, teachers and channel members.
//
// Terminology:
//   - UserID / user_id: the MongoDB ObjectID (_id)
//   - LoginID / login_id: the human-readable string typed at sign in
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID  *primitive.ObjectID `bson:"workspace_id,omitempty" json:"workspace_id,omitempty"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"`
	LoginID      string              `bson:"login_id" json:"login_id"`
	LoginIDCI    string              `bson:"login_id_ci" json:"-"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	Role         string              `bson:"role" json:"role"`
	Status       string              `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the user may sign in.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == "active"
}
