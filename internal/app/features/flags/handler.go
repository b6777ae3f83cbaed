// internal/app/features/flags/handler.go
package flags

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/flags"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes the browser's signed flag cookie to the client.
type Handler struct {
	Flags *flags.Store
	Log   *zap.Logger
}

func NewHandler(store *flags.Store, logger *zap.Logger) *Handler {
	return &Handler{Flags: store, Log: logger}
}

// ServeAll handles GET /api/flags.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	apiresp.OK(w, h.Flags.All(r))
}

type setInput struct {
	Value string `json:"value"`
}

// HandleSet handles PUT /api/flags/{key}. An empty body stores today's
// date, the value once-a-day flags compare against.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var in setInput
	if r.ContentLength > 0 {
		if err := apiresp.Decode(r, &in); err != nil {
			apiresp.Error(w, http.StatusBadRequest, "Could not read the flag value.")
			return
		}
	}
	if in.Value == "" {
		in.Value = flags.Day(time.Now())
	}
	all, err := h.Flags.Set(w, r, key, in.Value)
	if err != nil {
		h.fail(w, err)
		return
	}
	apiresp.OK(w, all)
}

// HandleDelete handles DELETE /api/flags/{key}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !flags.ValidKey(key) {
		h.fail(w, flags.ErrBadKey)
		return
	}
	all, err := h.Flags.Delete(w, r, key)
	if err != nil {
		h.fail(w, err)
		return
	}
	apiresp.OK(w, all)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, flags.ErrBadKey), errors.Is(err, flags.ErrTooLarge):
		apiresp.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, flags.ErrTooMany):
		apiresp.Error(w, http.StatusConflict, err.Error())
	default:
		h.Log.Error("write flag cookie", zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
