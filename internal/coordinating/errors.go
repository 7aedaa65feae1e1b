package coordinating

import "fmt"

// IntegrityError represents a coordination plan that violates a structural
// guarantee, such as the same project assigned to two slots. The plan is
// discarded rather than repaired.
type IntegrityError struct {
	Message string
	Cause   error
}

func (e *IntegrityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("coordination integrity error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("coordination integrity error: %s", e.Message)
}

func (e *IntegrityError) Unwrap() error {
	return e.Cause
}
