package board

import (
	"errors"
	"fmt"
	"strings"
)

// ViolationKind is a coarse-grained categorization of validation failures.
type ViolationKind string

const (
	KindUnknownLayer       ViolationKind = "unknown_layer"
	KindDuplicateReference ViolationKind = "duplicate_reference"
	KindEmptyOutline       ViolationKind = "empty_outline"
	KindNoCopper           ViolationKind = "no_copper_layer"
	KindUnknownField       ViolationKind = "unknown_field"
	KindUnknownFootprint   ViolationKind = "unknown_footprint"
	KindInvalidValue       ViolationKind = "invalid_value"
	KindFinalized          ViolationKind = "finalized"
)

// Violation is a single validation failure.
type Violation struct {
	Kind    ViolationKind
	Subject string // Offending item, e.g. a reference designator or layer name
	Message string
}

func (v Violation) String() string {
	if v.Subject == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Message)
	}
	return fmt.Sprintf("%s %q: %s", v.Kind, v.Subject, v.Message)
}

// ValidationError reports bad board input. Finalize collects every
// violation it finds into one error; builder operations report one.
type ValidationError struct {
	Op         string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Op, strings.Join(parts, "; "))
}

// Has reports whether the error contains a violation of the given kind
// about subject. An empty subject matches any.
func (e *ValidationError) Has(kind ViolationKind, subject string) bool {
	if e == nil {
		return false
	}
	for _, v := range e.Violations {
		if v.Kind == kind && (subject == "" || v.Subject == subject) {
			return true
		}
	}
	return false
}

func invalid(op string, kind ViolationKind, subject, format string, args ...any) *ValidationError {
	return &ValidationError{
		Op:         op,
		Violations: []Violation{{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)}},
	}
}

// GeometryError reports a degenerate or unsupported shape.
type GeometryError struct {
	Op     string
	Shape  string
	Reason string
}

func (e *GeometryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: degenerate %s: %s", e.Op, e.Shape, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsGeometry reports whether err is (or wraps) a GeometryError.
func IsGeometry(err error) bool {
	var ge *GeometryError
	return errors.As(err, &ge)
}
