// Package storeerr holds the error kinds shared by every store, so
// handlers can map store failures onto responses without knowing each
// store's sentinels.
package storeerr

import "errors"

// ErrInvalid marks input a store refused to write.
var ErrInvalid = errors.New("invalid input")

type invalid struct{ msg string }

func (e *invalid) Error() string { return e.msg }
func (e *invalid) Is(target error) bool { return target == ErrInvalid }

// Invalid returns a validation error whose message is shown to the user
// as-is and which matches ErrInvalid.
func Invalid(msg string) error { return &invalid{msg: msg} }
