package profiling

import "fmt"

// SynthesisError indicates the profile paragraph could not be produced.
type SynthesisError struct {
	Message string
	Cause   error
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("profile synthesis error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("profile synthesis error: %s", e.Message)
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}
