package xccdf

import (
	"errors"
	"fmt"
)

// ErrStructure reports an XCCDF document that is not shaped the way a STIG
// benchmark has to be. Every ParseError wraps it.
var ErrStructure = errors.New("malformed xccdf document")

type ParseError struct {
	File string
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.File, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func missing(what string) error {
	return fmt.Errorf("%w: missing %s", ErrStructure, what)
}
