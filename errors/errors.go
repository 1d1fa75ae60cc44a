package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // library module loading
	PhaseCall     Phase = "call"     // foreign entry point invocation
	PhaseMarshal  Phase = "marshal"  // list/buffer marshaling into guest memory
	PhasePrint    Phase = "print"    // textual rendering bridge
	PhaseRegistry Phase = "registry" // pass registration
	PhaseClose    Phase = "close"    // context/library teardown
)

// Kind categorizes the error
type Kind string

const (
	KindTrap         Kind = "trap"
	KindNotFound     Kind = "not_found"
	KindAllocation   Kind = "allocation"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindInvalidInput Kind = "invalid_input"
	KindClosed       Kind = "closed"
	KindMixedContext Kind = "mixed_context"
	KindSink         Kind = "sink"
	KindInvalidData  Kind = "invalid_data"
)

// Error is the structured error type used throughout the binding
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Symbol string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Symbol != "" {
		b.WriteString(" at ")
		b.WriteString(e.Symbol)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Symbol sets the foreign entry point name
func (b *Builder) Symbol(symbol string) *Builder {
	b.err.Symbol = symbol
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Trap wraps a foreign trap. Traps only occur when a documented precondition
// of the wrapped library was violated, so callers generally treat this as a
// contract failure rather than a recoverable condition.
func Trap(symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindTrap,
		Symbol: symbol,
		Cause:  cause,
	}
}

// NotFound creates an error for a missing foreign export
func NotFound(symbol string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNotFound,
		Symbol: symbol,
		Detail: "entry point not exported by the library module",
	}
}

// AllocationFailed creates a guest allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes in guest memory", size),
		Cause:  cause,
	}
}

// OutOfBounds creates a guest memory access error
func OutOfBounds(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Closed reports use of a handle whose owning context or library was torn
// down
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindClosed,
		Detail: what + " used after close",
	}
}

// MixedContext reports operands that belong to different owning contexts
func MixedContext(symbol string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindMixedContext,
		Symbol: symbol,
		Detail: "operands belong to different contexts",
	}
}

// Sink wraps a write failure from a caller-supplied print sink
func Sink(symbol string, cause error) *Error {
	return &Error{
		Phase:  PhasePrint,
		Kind:   KindSink,
		Symbol: symbol,
		Cause:  cause,
	}
}
