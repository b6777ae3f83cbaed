// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's lowercased role, name, ObjectID and a found
// flag. A missing user or a malformed id yields "visitor" and ok=false, so
// ok=true always means a usable ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the user runs the admin portal. Superadmins count.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == models.RoleAdmin || role == models.RoleSuperAdmin)
}

// IsSuperAdmin reports whether the user is a superadmin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleSuperAdmin
}

// IsAgent reports whether the user is an agent.
func IsAgent(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAgent
}

// IsTeacher reports whether the user owns a channel.
func IsTeacher(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleTeacher
}

// IsMember reports whether the user is a channel member.
func IsMember(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleMember
}

// WorkspaceID returns the user's workspace, or NilObjectID.
func WorkspaceID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.WorkspaceID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.WorkspaceID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// Scope builds the fetch scope for the signed-in user.
func Scope(r *http.Request) (tabload.Scope, bool) {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return tabload.Scope{}, false
	}
	sc := tabload.Scope{UserID: id.Hex(), Role: role}
	if ws := WorkspaceID(r); !ws.IsZero() {
		sc.WorkspaceID = ws.Hex()
	}
	return sc, true
}
