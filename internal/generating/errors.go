package generating

import "fmt"

// GenerationError represents a failed or unusable bullet generation for a
// single slot. The slot index is carried so fan-out callers can attribute
// the failure.
type GenerationError struct {
	SlotIndex int
	Message   string
	Cause     error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation error (slot %d): %s: %v", e.SlotIndex, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation error (slot %d): %s", e.SlotIndex, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
