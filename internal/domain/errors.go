package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way callers are expected to react to it.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindPermission
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a caller-facing failure carrying a Kind and a human-readable reason.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func Permission(message string) error {
	return &Error{Kind: KindPermission, Message: message}
}

func Unavailable(err error) error {
	return &Error{Kind: KindUnavailable, Message: "service temporarily unavailable", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindUnknown
}

// Reason returns the message meant for clients, without wrapped causes.
func Reason(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
