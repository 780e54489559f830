package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the core wraps exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrStore        = errors.New("store failure")
	ErrUnauthorized = errors.New("unauthenticated")
)

// Reason distinguishes authorization denials.
type Reason string

const (
	ReasonNotSubordinate Reason = "not_subordinate"
	ReasonNoViewRights   Reason = "no_view_rights"
	ReasonNoEditRights   Reason = "no_edit_rights"
	ReasonStatusOnly     Reason = "status_only"
)

// Message returns the human readable text for a denial reason
func (r Reason) Message() string {
	switch r {
	case ReasonNotSubordinate:
		return "tasks can only be assigned to direct subordinates"
	case ReasonNoViewRights:
		return "no rights to view this task"
	case ReasonNoEditRights:
		return "no rights to edit this task"
	case ReasonStatusOnly:
		return "only status may be changed by non-creators"
	default:
		return string(r)
	}
}

// Error carries a kind plus the details the transport needs to report it.
type Error struct {
	Kind   error
	Reason Reason // set for ErrForbidden
	Field  string // set for ErrValidation when a single field is at fault
	Msg    string
	Err    error // underlying cause, e.g. a driver error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Invalid builds a validation error for a field
func Invalid(field, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error for an entity
func NotFound(entity string, id any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf("%s %v not found", entity, id)}
}

// Denied builds an authorization error with the given reason
func Denied(reason Reason) error {
	return &Error{Kind: ErrForbidden, Reason: reason, Msg: reason.Message()}
}

// Conflict builds a conflict error
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// StoreFailure wraps a persistence error. Errors that already carry a kind
// pass through unchanged.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: ErrStore, Msg: op, Err: err}
}

// ReasonOf extracts the denial reason from err, if any
func ReasonOf(err error) (Reason, bool) {
	var de *Error
	if errors.As(err, &de) && de.Reason != "" {
		return de.Reason, true
	}
	return "", false
}

// FieldOf extracts the offending field from a validation error, if any
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
