package apperror

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindAuthorization   Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHORIZED"
	KindStorage         Kind = "STORAGE_ERROR"
)

// Error is the single error shape returned by services. Code is a short
// machine readable reason, Message is safe to show to the actor.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// Validationf wraps a sentinel so callers can still match it with errors.Is.
func Validationf(code string, sentinel error) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: sentinel.Error(), Err: sentinel}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: "PERMISSION_DENIED", Message: message}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: what + " not found"}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: "UNAUTHENTICATED", Message: message}
}

func Storage(op string, err error) *Error {
	code := "STORAGE_FAILURE"
	if errors.Is(err, context.DeadlineExceeded) {
		code = "STORAGE_TIMEOUT"
	}
	return &Error{Kind: KindStorage, Code: code, Message: op + " failed", Err: err}
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// IsValidation reports whether err was raised before any write. Permission
// and not-found failures count as validation failures.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindAuthorization, KindNotFound:
		return true
	}
	return false
}

func IsAuthorization(err error) bool {
	return KindOf(err) == KindAuthorization
}

func IsStorage(err error) bool {
	return err != nil && KindOf(err) == KindStorage
}
