package translate

import (
	"errors"
	"fmt"
)

// ErrorKind classifies translation failures.
type ErrorKind int

const (
	// KindConfig: the settings cannot produce a request (e.g. no API key).
	KindConfig ErrorKind = iota + 1
	// KindInput: nothing to send (empty text or empty document).
	KindInput
	// KindTransport: network failure or a non-2xx status.
	KindTransport
	// KindAPI: the provider answered with an error payload.
	KindAPI
	// KindParse: a response could not be mapped back onto the request.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindInput:
		return "input"
	case KindTransport:
		return "transport"
	case KindAPI:
		return "api"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is on an *Error of the matching kind.
var (
	ErrConfig    = errors.New("configuration error")
	ErrInput     = errors.New("input error")
	ErrTransport = errors.New("transport error")
	ErrAPI       = errors.New("api error")
	ErrParse     = errors.New("parse error")
)

// ErrNothingToTranslate is returned by Engine.Run when no line of the
// document is translatable.
var ErrNothingToTranslate = &Error{Kind: KindInput, Msg: "nothing to translate"}

// Error is a classified translation failure with a short human-readable
// message.
type Error struct {
	Kind ErrorKind
	Msg  string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels and other *Error values of the same kind
// and message.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrInput:
		return e.Kind == KindInput
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrAPI:
		return e.Kind == KindAPI
	case ErrParse:
		return e.Kind == KindParse
	}
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind && other.Msg == e.Msg
	}
	return false
}

func newError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// LineError reports a failure for one document line.
type LineError struct {
	// Line is the zero-based index in the original document.
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line+1, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
