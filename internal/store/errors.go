package store

import "fmt"

// Kind classifies a persistence failure. Services map kinds to domain errors.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindConflict
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindConflict:
		return "concurrent modification"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "store error"
	}
}

// Error is a classified persistence error, optionally carrying the detail
// that caused it (the missing ID, the driver error).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for copies made with WithCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Kind == t.Kind
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Err: err}
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists}

	// ErrConflict is returned when a write lost a race with a concurrent
	// transaction. The caller may retry.
	ErrConflict = &Error{Kind: KindConflict}

	// ErrInvalidInput rejects writes that would break an order invariant,
	// such as SetOrder with IDs that are not the scope's membership.
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)
