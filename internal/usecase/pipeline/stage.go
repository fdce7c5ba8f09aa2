package pipeline

import "fmt"

// Stage is a step of a single pipeline run.
type Stage int

// Run stages in execution order. A run ends in Done or Failed.
const (
	StageIdle Stage = iota
	StageRetrieving
	StageAssembling
	StageGenerating
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRetrieving:
		return "retrieving"
	case StageAssembling:
		return "assembling"
	case StageGenerating:
		return "generating"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError reports the stage a run failed in.
// errors.Is and errors.As see through it to the underlying error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
