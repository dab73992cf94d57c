package app

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuit is returned by Run when the user leaves (Ctrl-C, Ctrl-D on an
	// empty line, or Quit).
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("application already running")
)

// ComponentError tags a startup or shutdown failure with the part of the
// client that produced it, e.g. "session: dial: connection refused".
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

// NewComponentError creates a ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{Component: component, Action: action, Err: err}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	parts := []string{e.Component}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorList gathers the failures of Shutdown so every component gets closed
// even when an earlier one fails. Not safe for concurrent use.
type ErrorList struct {
	errs []error
}

// Add records err; nil is ignored.
func (l *ErrorList) Add(err error) {
	if err == nil {
		return
	}
	l.errs = append(l.errs, err)
}

// Len returns the number of recorded errors.
func (l *ErrorList) Len() int {
	return len(l.errs)
}

// Error reports the count and the first failure.
func (l *ErrorList) Error() string {
	switch {
	case l == nil || len(l.errs) == 0:
		return ""
	case len(l.errs) == 1:
		return l.errs[0].Error()
	}
	return fmt.Sprintf("%d errors: first: %v", len(l.errs), l.errs[0])
}

// Unwrap lets errors.Is and errors.As search every recorded error.
func (l *ErrorList) Unwrap() []error {
	return l.errs
}

// AsError returns nil for an empty list.
func (l *ErrorList) AsError() error {
	if l.Len() == 0 {
		return nil
	}
	return l
}
