package intent

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when the model names an intent outside Kinds.
	ErrUnknownKind = errors.New("unknown intent kind")

	// ErrNoClient is returned when a Classifier has no chat client configured.
	ErrNoClient = errors.New("no chat client configured")
)

// ClassificationError records why a question fell back to general_query.
// Classify never returns it; it is logged and counted.
type ClassificationError struct {
	// Op is the step that failed (e.g., "Complete", "Decode").
	Op string

	// Err is the underlying error.
	Err error

	// Raw is the model reply, when one was received.
	Raw string
}

// Error implements the error interface.
func (e *ClassificationError) Error() string {
	return fmt.Sprintf("intent: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// NewClassificationError creates a ClassificationError.
func NewClassificationError(op string, err error, raw string) *ClassificationError {
	return &ClassificationError{
		Op:  op,
		Err: err,
		Raw: raw,
	}
}
