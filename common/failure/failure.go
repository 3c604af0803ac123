// Package failure classifies the errors a proxy session or the proxy
// process can end with.
package failure

import (
	"errors"

	E "github.com/sagernet/sing/common/exceptions"
)

// Kind is both the classification of an Error and a sentinel usable with errors.Is.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

const (
	Config    Kind = "config error"
	Bind      Kind = "bind error"
	Accept    Kind = "accept error"
	Handshake Kind = "handshake error"
	Connect   Kind = "connect error"
	Timeout   Kind = "timeout error"
	Relay     Kind = "relay error"
)

type Error struct {
	Kind  Kind
	Cause error
}

func New(kind Kind, cause error, message ...any) error {
	if cause == nil {
		return nil
	}
	if len(message) > 0 {
		cause = E.Cause(cause, message...)
	}
	var target *Error
	if errors.As(cause, &target) {
		// keep the innermost classification
		return cause
	}
	return &Error{Kind: kind, Cause: cause}
}

func Newf(kind Kind, message ...any) error {
	return &Error{Kind: kind, Cause: E.New(message...)}
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	kind, isKind := target.(Kind)
	return isKind && kind == e.Kind
}

// KindOf returns the kind attached to err, or an empty Kind.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}

// IsFatal reports whether err must terminate the process instead of a single session.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case Config, Bind, Accept:
		return true
	default:
		return false
	}
}
