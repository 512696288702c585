package audio

import (
	"errors"
	"fmt"
)

// ParseError describes why a binary structure could not be parsed.
// Each parser returns either a structured value or a ParseError; the
// caller turns the failure into a Read Error record.
type ParseError struct {
	// Offset is the file offset where parsing failed, when known.
	Offset int64

	// Reason is the human-readable failure detail.
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d)", e.Reason, e.Offset)
	}
	return e.Reason
}

// parseErrorf builds a ParseError at the given offset.
func parseErrorf(offset int64, format string, args ...interface{}) *ParseError {
	return &ParseError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// asParseError unwraps err into target if it carries a ParseError.
func asParseError(err error, target **ParseError) bool {
	return errors.As(err, target)
}
