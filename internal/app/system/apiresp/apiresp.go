// Package apiresp writes the JSON envelopes the dashboard client expects.
//
// Every failure the user should see is delivered as a toast:
//
//	{"ok":false,"toast":{"kind":"error","message":"Could not load orders"}}
//
// Validation failures also carry a field map so the form can highlight inputs.
package apiresp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Toast kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

// maxBody limits request bodies decoded by Decode.
const maxBody = 1 << 20

// Toast is a transient notification shown by the client.
type Toast struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Envelope is the common response shape.
type Envelope struct {
	OK     bool              `json:"ok"`
	Toast  *Toast            `json:"toast,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Data   any               `json:"data,omitempty"`
}

// JSON writes v with status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 envelope around data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// Success writes a 200 envelope with a success toast.
func Success(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{OK: true, Toast: &Toast{Kind: KindSuccess, Message: message}, Data: data})
}

// Created writes a 201 envelope with a success toast.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{OK: true, Toast: &Toast{Kind: KindSuccess, Message: message}, Data: data})
}

// Error writes an error toast with status code.
func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, Envelope{OK: false, Toast: &Toast{Kind: KindError, Message: message}})
}

// Invalid writes a 400 with the per-field messages.
func Invalid(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, Envelope{
		OK:     false,
		Toast:  &Toast{Kind: KindError, Message: "Please correct the highlighted fields."},
		Fields: fields,
	})
}

// NotFound writes a 404 toast.
func NotFound(w http.ResponseWriter, what string) {
	Error(w, http.StatusNotFound, fmt.Sprintf("%s not found.", what))
}

// ErrBadBody is returned by Decode for malformed or oversized bodies.
var ErrBadBody = errors.New("malformed request body")

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrBadBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}
