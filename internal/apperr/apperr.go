// Package apperr defines the error taxonomy shared by the journal core and
// its transport.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the caller should present it.
type Kind string

const (
	KindUnknown           Kind = "internal"
	KindStorageCorruption Kind = "storage_corruption"
	KindGeneration        Kind = "generation_failed"
	KindStream            Kind = "stream_failed"
	KindValidation        Kind = "validation_failed"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
)

// Error wraps a cause with its kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so callers can test with
// errors.Is(err, apperr.Generation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	StorageCorruption = &Error{Kind: KindStorageCorruption}
	Generation        = &Error{Kind: KindGeneration}
	Stream            = &Error{Kind: KindStream}
	Validation        = &Error{Kind: KindValidation}
	NotFound          = &Error{Kind: KindNotFound}
	Conflict          = &Error{Kind: KindConflict}
)

// E builds an *Error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Response is the error envelope written to clients.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToResponse renders err for a client. Causes of internal errors are not
// exposed.
func ToResponse(err error) Response {
	kind := KindOf(err)
	if kind == KindUnknown {
		return Response{Code: string(kind), Message: "An unexpected error occurred."}
	}
	var e *Error
	errors.As(err, &e)
	msg := string(kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return Response{Code: string(kind), Message: msg}
}
