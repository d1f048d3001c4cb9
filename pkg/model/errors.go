package model

import (
	"errors"
	"fmt"
)

// Kind classifies failures by blast radius.
type Kind int

const (
	// KindConfiguration marks a broken model asset. Fatal, never retried.
	KindConfiguration Kind = iota + 1
	// KindInput marks a sequence the engine cannot process. Fatal for that
	// sequence only; the shared model is untouched.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindInput:
		return "input error"
	default:
		return "error"
	}
}

// Sentinel causes
var (
	ErrSyntax               = errors.New("syntax error")
	ErrUnknownState         = errors.New("unknown state")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrUnresolvedTie        = errors.New("tie references a nonexistent state")
	ErrTieCycle             = errors.New("tie references form a cycle")
	ErrTieMismatch          = errors.New("tied transition count mismatch")
	ErrMissingProbabilities = errors.New("list declared without probabilities")
	ErrNotStochastic        = errors.New("row does not sum to 1")
	ErrBadProbability       = errors.New("probability outside [0, 1]")
	ErrTooFewStates         = errors.New("model needs a start and an end state")
	ErrInvalidAlpha         = errors.New("smoothing constant must lie in (0, 1)")
	ErrAlreadySmoothed      = errors.New("end smoothing already applied")
	ErrEmptySequence        = errors.New("empty sequence")
	ErrNoPath               = errors.New("no state path can emit the sequence")
)

// Error is the structured error returned by the compiler and the engine.
type Error struct {
	Kind     Kind
	Op       string // Phase that failed (e.g. "parse", "resolve_ties", "encode")
	Subject  string // State name or symbol involved
	Position int    // Token or residue position, -1 when not applicable
	Context  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.Subject != "" {
		msg += fmt.Sprintf(" %q", e.Subject)
	}
	if e.Position >= 0 {
		msg += fmt.Sprintf(" at %d", e.Position)
	}
	if e.Context != "" {
		msg += fmt.Sprintf(" (%s)", e.Context)
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// NewError starts a configuration error for the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Kind: KindConfiguration, Op: op, Position: -1}}
}

// Input marks the error as an input error.
func (b *ErrorBuilder) Input() *ErrorBuilder {
	b.err.Kind = KindInput
	return b
}

// Subject names the state or symbol involved.
func (b *ErrorBuilder) Subject(s string) *ErrorBuilder {
	b.err.Subject = s
	return b
}

// At records a token or residue position.
func (b *ErrorBuilder) At(pos int) *ErrorBuilder {
	b.err.Position = pos
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(format string, args ...any) *ErrorBuilder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() *Error {
	e := b.err
	return &e
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return b.Build()
}

// KindOf returns the Kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool {
	return KindOf(err) == KindInput
}

// UnknownStateError is returned by index lookups.
func UnknownStateError(op, name string) error {
	return NewError(op).Subject(name).Cause(ErrUnknownState).Err()
}
