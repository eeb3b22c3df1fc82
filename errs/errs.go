package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an engine failure. Callers match on it with errors.Is against the
// sentinel values below rather than parsing messages.
type Kind int

const (
	TypeMismatch Kind = iota + 1
	NullInComparison
	UnboundReference
	ArityMismatch
	SchemaViolation
	UnsupportedAggregation
	Arithmetic
)

var (
	ErrTypeMismatch           = &Error{Kind: TypeMismatch}
	ErrNullInComparison       = &Error{Kind: NullInComparison}
	ErrUnboundReference       = &Error{Kind: UnboundReference}
	ErrArityMismatch          = &Error{Kind: ArityMismatch}
	ErrSchemaViolation        = &Error{Kind: SchemaViolation}
	ErrUnsupportedAggregation = &Error{Kind: UnsupportedAggregation}
	ErrArithmetic             = &Error{Kind: Arithmetic}
)

func (k Kind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case NullInComparison:
		return "null in comparison"
	case UnboundReference:
		return "unbound reference"
	case ArityMismatch:
		return "arity mismatch"
	case SchemaViolation:
		return "schema violation"
	case UnsupportedAggregation:
		return "unsupported aggregation"
	case Arithmetic:
		return "arithmetic"
	default:
		return "unknown"
	}
}

// Error is a templated failure. Template placeholders look like ${name} and are
// filled from Params when the message is rendered.
type Error struct {
	Kind     Kind
	Template string
	Params   map[string]any
}

func New(kind Kind, template string) *Error {
	return &Error{
		Kind:     kind,
		Template: template,
		Params:   make(map[string]any),
	}
}

// With records a named parameter and returns the receiver for chaining.
func (e *Error) With(name string, v any) *Error {
	e.Params[name] = v
	return e
}

func (e *Error) Param(name string) (any, bool) {
	v, ok := e.Params[name]
	return v, ok
}

func (e *Error) Error() string {
	if e.Template == "" {
		return e.Kind.String()
	}
	msg := e.Template
	// deterministic expansion so overlapping names behave the same every run
	names := make([]string, 0, len(e.Params))
	for n := range e.Params {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		msg = strings.ReplaceAll(msg, "${"+n+"}", fmt.Sprint(e.Params[n]))
	}
	return msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ParamOf pulls a named parameter out of the first *Error in err's chain.
func ParamOf(err error, name string) (any, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e.Param(name)
}
