// Package errs defines the error kinds shared by the scoring core and its adapters.
//
// Every error returned across a package boundary is either one of the kind
// sentinels below, a kinded sentinel that unwraps to one, or an *Error that
// tags an operation with a kind. KindOf recovers the kind from any of them.
package errs

import (
	"errors"
	"strings"
)

// Kind sentinels.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrStore        = errors.New("store failure")
)

// kinds lists the kind sentinels in KindOf lookup order.
var kinds = []error{ErrNotFound, ErrValidation, ErrUnauthorized, ErrConflict, ErrStore}

// kinded is a sentinel that belongs to a kind.
type kinded struct {
	msg  string
	kind error
}

func (k *kinded) Error() string { return k.msg }
func (k *kinded) Unwrap() error { return k.kind }

// Sentinel returns a new sentinel error of the given kind.
func Sentinel(kind error, msg string) error {
	return &kinded{msg: msg, kind: kind}
}

// Specific sentinels.
var (
	ErrInvalidRange        = Sentinel(ErrValidation, "value out of range")
	ErrNoMetadata          = Sentinel(ErrValidation, "submission has no usable metadata")
	ErrInvalidTransition   = Sentinel(ErrValidation, "invalid status transition")
	ErrVotingClosed        = Sentinel(ErrConflict, "voting is closed for this event")
	ErrDuplicateSubmission = Sentinel(ErrConflict, "team already has a submission for this event")
	ErrTeamLimit           = Sentinel(ErrConflict, "event team limit reached")
)

// Error tags an underlying error with the operation that produced it and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	default:
		b.WriteString("unknown error")
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind for op with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap tags err with op, keeping whatever kind err already carries.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: KindOf(err), Err: err}
}

// WrapKind tags err with op and forces kind.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf reports the kind of err, or nil when err carries none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Is reports whether err is of kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
