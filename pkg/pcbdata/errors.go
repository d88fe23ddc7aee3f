package pcbdata

import (
	"errors"
	"fmt"
)

// SerializationError reports an internal inconsistency found while
// producing the document. Board validation should make it unreachable.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsSerialization reports whether err is (or wraps) a SerializationError.
func IsSerialization(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

func serr(op string, format string, args ...any) error {
	return &SerializationError{Op: op, Err: fmt.Errorf(format, args...)}
}
