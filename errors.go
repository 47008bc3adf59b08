package hybrid

import (
	"errors"
	"strings"
)

// ErrorClass groups construction errors by what went wrong.
type ErrorClass int

const (
	// ClassScope is a reference to an undeclared variable, event or location.
	ClassScope ErrorClass = iota
	// ClassConflict is two declarations that cannot coexist.
	ClassConflict
	// ClassOrdering is a missing element that a fixed enumeration order relies on.
	ClassOrdering
)

func (c ErrorClass) String() string {
	switch c {
	case ClassScope:
		return "scope"
	case ClassConflict:
		return "conflict"
	case ClassOrdering:
		return "ordering"
	default:
		return "unknown"
	}
}

var (
	ErrUndeclaredVariable = errors.New("undeclared variable")
	ErrUndeclaredEvent    = errors.New("undeclared event")
	ErrUnknownLocation    = errors.New("unknown location")

	ErrDuplicateLocation = errors.New("location already registered")
	ErrRoleConflict      = errors.New("declared with two different roles")
	ErrOutputConflict    = errors.New("output variable driven by both operands")
	ErrParameterConflict = errors.New("parameter bound to different values")
	ErrEventConflict     = errors.New("event cannot be shared between operands")
	ErrLocationMismatch  = errors.New("location not registered in operand")
	ErrEmptySystem       = errors.New("no components to compose")

	ErrMissingEvents = errors.New("not enough input events")
)

var classes = map[error]ErrorClass{
	ErrUndeclaredVariable: ClassScope,
	ErrUndeclaredEvent:    ClassScope,
	ErrUnknownLocation:    ClassScope,
	ErrDuplicateLocation:  ClassConflict,
	ErrRoleConflict:       ClassConflict,
	ErrOutputConflict:     ClassConflict,
	ErrParameterConflict:  ClassConflict,
	ErrEventConflict:      ClassConflict,
	ErrLocationMismatch:   ClassConflict,
	ErrEmptySystem:        ClassConflict,
	ErrMissingEvents:      ClassOrdering,
}

// Error reports a failed construction step and the names that caused it.
type Error struct {
	Op        string
	Component string
	Names     []string
	Err       error
}

func (e *Error) Error() string {
	var builder strings.Builder
	builder.WriteString("hybrid: ")
	builder.WriteString(e.Op)
	if e.Component != "" {
		builder.WriteString(" ")
		builder.WriteString(e.Component)
	}
	builder.WriteString(": ")
	builder.WriteString(e.Err.Error())
	if len(e.Names) > 0 {
		builder.WriteString(": ")
		builder.WriteString(strings.Join(e.Names, ", "))
	}
	return builder.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Class() ErrorClass {
	for sentinel, class := range classes {
		if errors.Is(e.Err, sentinel) {
			return class
		}
	}
	return ClassConflict
}

func newError(op, component string, err error, names ...string) *Error {
	return &Error{Op: op, Component: component, Names: names, Err: err}
}

func classOf(err error) (ErrorClass, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Class(), true
	}
	return 0, false
}

func IsScope(err error) bool {
	class, ok := classOf(err)
	return ok && class == ClassScope
}

func IsConflict(err error) bool {
	class, ok := classOf(err)
	return ok && class == ClassConflict
}
