// Package delivery implements the run coordinator: per-subscriber problem
// selection with a no-repeat guarantee, the staged content pipeline, and the
// per-run report.
package delivery

import (
	"errors"
	"fmt"
)

// Systemic errors abort a whole run before any pipeline executes. They are
// infrastructure problems, not content problems.
var (
	ErrDirectoryUnavailable = errors.New("subscriber directory unavailable")
	ErrCatalogUnavailable   = errors.New("problem catalog unavailable")
	ErrHistoryUnavailable   = errors.New("delivery history unavailable")
)

// Stage names one pipeline transition.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageSolve     Stage = "solve"
	StageEmbellish Stage = "embellish"
	StageSend      Stage = "send"
)

// StageError is a typed pipeline failure naming the stage it occurred in.
// A solve-stage error is a generation failure; a send-stage error means the
// message was not delivered.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage a pipeline error occurred in, or "" when err
// is not a stage failure.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
