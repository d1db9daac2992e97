package meta

import "fmt"

// ParseError reports a malformed text value. It carries the field being
// parsed and the raw input so callers can surface both.
type ParseError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s: %q", e.Field, e.Reason, e.Input)
}
