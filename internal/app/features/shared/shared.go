// Package shared holds the request plumbing common to the CRUD features:
// id parameters, store error mapping and tab invalidation.
package shared

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/app/system/inputval"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Invalidator refreshes dashboard tabs whose backing data changed.
// dashsession.Registry satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context, userID, dashboard string, tabIDs ...string) int
	InvalidateDashboard(ctx context.Context, dashboard string, tabIDs ...string) int
}

// NopInvalidator ignores every call.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context, string, string, ...string) int { return 0 }
func (NopInvalidator) InvalidateDashboard(context.Context, string, ...string) int { return 0 }

// OrNop returns inv, or a NopInvalidator when inv is nil.
func OrNop(inv Invalidator) Invalidator {
	if inv == nil {
		return NopInvalidator{}
	}
	return inv
}

// ObjectID reads the chi URL parameter name as an ObjectID. On failure it
// writes a 400 naming what and returns ok=false.
func ObjectID(w http.ResponseWriter, r *http.Request, name, what string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Invalid "+what+" id.")
		return primitive.NilObjectID, false
	}
	return oid, true
}

// InWorkspace reports whether a record in ws is visible to the caller.
// Callers without a workspace (superadmins) see every workspace.
func InWorkspace(r *http.Request, ws primitive.ObjectID) bool {
	mine := authz.WorkspaceID(r)
	return mine.IsZero() || mine == ws
}

// Fail writes the envelope for a store error:
//
//	notFound            404 "<what> not found."
//	storeerr.ErrInvalid 400 with the store's message
//	any of conflicts    409 with the error's message
//	deadline exceeded   504
//	anything else       500, logged under op
func Fail(w http.ResponseWriter, log *zap.Logger, op, what string, err error, notFound error, conflicts ...error) {
	switch {
	case notFound != nil && errors.Is(err, notFound):
		apiresp.NotFound(w, what)
		return
	case errors.Is(err, storeerr.ErrInvalid):
		apiresp.Error(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn(op+" timed out", zap.Error(err))
		apiresp.Error(w, http.StatusGatewayTimeout, "The request took too long. Please try again.")
		return
	}
	for _, c := range conflicts {
		if errors.Is(err, c) {
			apiresp.Error(w, http.StatusConflict, c.Error())
			return
		}
	}
	log.Error(op, zap.Error(err))
	apiresp.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// Bind decodes the JSON body into dst and validates it. On failure it
// writes the response and returns false.
func Bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := apiresp.Decode(r, dst); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Could not read the form.")
		return false
	}
	if err := inputval.Struct(dst); err != nil {
		apiresp.Invalid(w, inputval.Fields(err))
		return false
	}
	return true
}
