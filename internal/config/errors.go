package config

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("config not found")
	ErrInvalidConfig = errors.New("invalid config")
)

// Error describes a failed load or mapping of a config file.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := e.Op
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalidField(path, field, msg string) error {
	return &Error{
		Op:   "config.map",
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, ErrInvalidConfig),
	}
}
