// Package lyerr defines the fatal error kinds raised while evaluating
// expressions, building data frames, running physical operators, and
// driving a query through the runner. Every error kind is a Kind value
// carried by the single *Error type, so callers use errors.As or KindOf
// instead of string matching; all of them are fatal to the query that
// raised them except
// UnknownLabelOrType, which is carried as a warning only.
package lyerr

import "fmt"

// Kind identifies which class of error occurred.
type Kind int

const (
	KindUnboundVariable Kind = iota
	KindUnknownParameter
	KindTypeMismatch
	KindUnsupportedTemporalAccessor
	KindInvalidArgument
	KindUnknownProcedure
	KindProcedureArity
	KindNonAggregatingInAggregateContext
	KindUnknownLabelOrType
	KindGraphIOError
)

func (k Kind) String() string {
	switch k {
	case KindUnboundVariable:
		return "UnboundVariable"
	case KindUnknownParameter:
		return "UnknownParameter"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindUnsupportedTemporalAccessor:
		return "UnsupportedTemporalAccessor"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindUnknownProcedure:
		return "UnknownProcedure"
	case KindProcedureArity:
		return "ProcedureArity"
	case KindNonAggregatingInAggregateContext:
		return "NonAggregatingInAggregateContext"
	case KindUnknownLabelOrType:
		return "UnknownLabelOrType"
	case KindGraphIOError:
		return "GraphIOError"
	default:
		return "Unknown"
	}
}

// Error is a typed, fatal query error carrying a Kind for programmatic
// dispatch plus a human-readable message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func UnboundVariable(name string) error {
	return newf(KindUnboundVariable, "variable %q is not bound in this context", name)
}

func UnknownParameter(name string) error {
	return newf(KindUnknownParameter, "parameter $%s was not supplied", name)
}

func TypeMismatch(format string, args ...any) error {
	return newf(KindTypeMismatch, format, args...)
}

func UnsupportedTemporalAccessor(name string) error {
	return newf(KindUnsupportedTemporalAccessor, "unsupported temporal accessor %q", name)
}

func InvalidArgument(format string, args ...any) error {
	return newf(KindInvalidArgument, format, args...)
}

func UnknownProcedure(namespace, name string, arity int) error {
	if namespace != "" {
		return newf(KindUnknownProcedure, "unknown procedure %s.%s/%d", namespace, name, arity)
	}
	return newf(KindUnknownProcedure, "unknown procedure %s/%d", name, arity)
}

func ProcedureArity(name string, want, got int) error {
	return newf(KindProcedureArity, "procedure %s expects %d argument(s), got %d", name, want, got)
}

func NonAggregatingInAggregateContext(format string, args ...any) error {
	return newf(KindNonAggregatingInAggregateContext, format, args...)
}

// UnknownLabelOrType builds a warning-only error. Callers that only
// need to invalidate a cache or log a note can check KindOf without
// aborting the query.
func UnknownLabelOrType(format string, args ...any) error {
	return newf(KindUnknownLabelOrType, format, args...)
}

func GraphIOError(cause error) error {
	return &Error{Kind: KindGraphIOError, Message: "graph model I/O failed", Cause: cause}
}

// Wrap attaches context to an existing lyerr.Error, preserving its Kind.
func Wrap(err error, context string) error {
	var le *Error
	if As(err, &le) {
		return &Error{Kind: le.Kind, Message: context + ": " + le.Message, Cause: le.Cause}
	}
	return fmt.Errorf("%s: %w", context, err)
}

// As is a small local alias so this package doesn't need to import
// errors just for one call site used by Wrap.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var le *Error
	if As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}
