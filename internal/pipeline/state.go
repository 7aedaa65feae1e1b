package pipeline

// State is the orchestrator's position in the run lifecycle. Transitions
// are strictly forward; Aborted and Finalized are terminal.
type State string

const (
	StateStructuring  State = "structuring"
	StateCoordinating State = "coordinating"
	StateGenerating   State = "generating"
	StateAssembling   State = "assembling"
	StateFinalized    State = "finalized"
	StateAborted      State = "aborted"
)

// Abort reasons recorded in run metadata.
const (
	AbortStructuringFailed     = "structuring_failed"
	AbortConfigurationInvalid  = "configuration_invalid"
	AbortCoordinationIntegrity = "coordination_integrity"
	AbortGenerationFailed      = "generation_failed"
	AbortAssemblyFailed        = "assembly_failed"
)
