package policy

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCommand is returned for blank command text.
	ErrEmptyCommand = errors.New("command cannot be empty")
	// ErrInvalidMode is returned for an unknown execution mode.
	ErrInvalidMode = errors.New("invalid execution mode")
	// ErrNoPrompter means a confirmation was required but nobody can answer it.
	ErrNoPrompter = errors.New("no prompter available")
)

// PolicyError is a rejection that happens before any process is touched.
type PolicyError struct {
	Op    string
	Value string
	Cause error
}

func (e *PolicyError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("policy %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("policy %s %q: %v", e.Op, e.Value, e.Cause)
}

func (e *PolicyError) Unwrap() error { return e.Cause }
