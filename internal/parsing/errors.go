package parsing

import "fmt"

// Error represents a response body that could not be read as the expected document.
type Error struct {
	Source  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error (%s): %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error (%s): %s", e.Source, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
