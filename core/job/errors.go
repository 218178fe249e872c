package job

import (
	"errors"
	"fmt"
)

// ErrTerminated is the Result error of a job cancelled while running.
var ErrTerminated = errors.New("job terminated")

// ResolutionError is returned when a stage names neither a builtin nor an
// executable.
type ResolutionError struct {
	Stage int
	Name  string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: command not found", e.Name)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Code returns the job status for the error.
func (e *ResolutionError) Code() int {
	return StatusNotFound
}

// SpawnError is returned when a stage can't be started, either its
// executable or one of its redirect files.
type SpawnError struct {
	Stage int
	// Name is the command or redirect file that failed.
	Name string
	Err  error
	// Status is the job status to report.
	Status int
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Code returns the job status for the error.
func (e *SpawnError) Code() int {
	return e.Status
}

// StatusOf returns the status to report for an error from Start.
func StatusOf(err error) int {
	var coder interface{ Code() int }
	switch {
	case err == nil:
		return StatusSuccess
	case errors.As(err, &coder):
		return coder.Code()
	default:
		return StatusFailure
	}
}
