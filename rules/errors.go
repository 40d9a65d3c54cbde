package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrNilRule is returned when a nil rule reaches catalog validation.
	ErrNilRule = errors.New("rule is nil")

	// ErrUnnamedRule is returned when a rule has no name.
	ErrUnnamedRule = errors.New("rule name is required")
)

// ValidationError describes one rejected condition or action.
type ValidationError struct {
	Index  int
	Part   string // "condition" or "action"
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %d: %s %q", e.Part, e.Index, e.Reason, e.Value)
}
