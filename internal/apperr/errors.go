// Package apperr holds the error taxonomy shared by the catalog and invoice engine.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindState             Kind = "state"
	KindInsufficientStock Kind = "insufficient_stock"
	KindStorage           Kind = "storage"
)

// Error is a domain failure with a stable kind and code. Two errors match under
// errors.Is when kind and code are equal, so a sentinel still matches after
// WithMessage attached request specific detail.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// WithMessage returns a copy of e carrying a formatted message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Storage wraps a driver or transaction failure into an opaque storage error.
// Domain errors pass through untouched.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStorage, Code: "storage_failure", Message: "storage failure", Err: err}
}

// KindOf reports the kind of err. Unknown non-nil errors are storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorage
}

// CodeOf reports the code of err, or "" when err is not a domain error.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
