package scanner

import "fmt"

// ExtractionError is a source failure absorbed by the run orchestrator.
type ExtractionError struct {
	Source string
	Err    error
	// Panic holds the recovered value when the source panicked.
	Panic any
}

func (e *ExtractionError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("source %s panicked: %v", e.Source, e.Panic)
	}
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
