package caraudio

import "fmt"

// ExportError represents a car-audio export error.
type ExportError struct {
	Message  string
	Original error
}

func (e *ExportError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Export error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Export error: %s", e.Message)
}

func (e *ExportError) Unwrap() error {
	return e.Original
}
