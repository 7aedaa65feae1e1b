package coverletter

import "fmt"

// GenerationError indicates the cover letter could not be produced. The
// orchestrator treats it as a warning: a run still finalizes without a
// cover letter.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cover letter error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cover letter error: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
