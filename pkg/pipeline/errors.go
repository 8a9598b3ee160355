// pkg/pipeline/errors.go
package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoInput is returned when a stage finds no input files
var ErrNoInput = errors.New("no input files")

// Stage names one step of the pipeline
type Stage string

const (
	StageExtract      Stage = "extract"
	StageCanonicalize Stage = "canonicalize"
	StageProject      Stage = "project"
	StageCombine      Stage = "combine"
)

// StageError ties a fatal failure to the stage and file being processed
type StageError struct {
	Stage Stage
	File  string // Empty when the failure is not tied to one file
	Err   error
}

func (e *StageError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s stage failed on %s: %v", e.Stage, e.File, e.Err)
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, file string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, File: file, Err: err}
}
