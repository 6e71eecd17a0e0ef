package book

import (
	"errors"
	"fmt"
)

// Kind categorizes extraction failures.
type Kind string

const (
	KindInvalidURL      Kind = "invalid_url"
	KindNavigation      Kind = "navigation"
	KindContentNotFound Kind = "content_not_found"
	KindPayloadMissing  Kind = "payload_missing"
	KindDecode          Kind = "decode"
	KindWrite           Kind = "write"
	KindBrowserLaunch   Kind = "browser_launch"
)

// Stage names the pipeline step a failure happened in.
type Stage string

const (
	StageValidate Stage = "validate"
	StageLaunch   Stage = "launch"
	StageNavigate Stage = "navigate"
	StageLocate   Stage = "locate"
	StageExtract  Stage = "extract"
	StageDecode   Stage = "decode"
	StageWrite    Stage = "write"
)

// Stage returns the pipeline step that produces errors of this kind.
func (k Kind) Stage() Stage {
	switch k {
	case KindInvalidURL:
		return StageValidate
	case KindBrowserLaunch:
		return StageLaunch
	case KindNavigation:
		return StageNavigate
	case KindContentNotFound:
		return StageLocate
	case KindPayloadMissing:
		return StageExtract
	case KindDecode:
		return StageDecode
	default:
		return StageWrite
	}
}

// Error is a classified extraction failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidURL      = &Error{Kind: KindInvalidURL}
	ErrNavigation      = &Error{Kind: KindNavigation}
	ErrContentNotFound = &Error{Kind: KindContentNotFound}
	ErrPayloadMissing  = &Error{Kind: KindPayloadMissing}
	ErrDecode          = &Error{Kind: KindDecode}
	ErrWrite           = &Error{Kind: KindWrite}
	ErrBrowserLaunch   = &Error{Kind: KindBrowserLaunch}
)

// Errorf builds an *Error of the given kind. A %w verb in format becomes the
// wrapped cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether another attempt might succeed. Only navigation
// failures qualify; everything else is a property of the page or the disk.
func (e *Error) Retryable() bool {
	return e.Kind == KindNavigation
}

// Fatal reports whether the failure makes every later item pointless.
func (e *Error) Fatal() bool {
	return e.Kind == KindBrowserLaunch
}

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable()
}

// IsFatal reports whether err is a batch-fatal *Error.
func IsFatal(err error) bool {
	e, ok := AsError(err)
	return ok && e.Fatal()
}
