package apperr

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// Stage names the step of a benchmark attempt that failed.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageMeasure Stage = "measure"
)

// MeasurementError is a failure of the code under test rather than of the
// environment. The sweep records it as data and moves on.
type MeasurementError struct {
	Stage    Stage
	Command  string
	ExitCode int
	Err      error
}

func (e *MeasurementError) Error() string {
	msg := fmt.Sprintf("%s %q", e.Stage, e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(": exit status %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MeasurementError) Unwrap() error {
	return e.Err
}

func NewMeasurement(stage Stage, command string, exitCode int) *MeasurementError {
	return &MeasurementError{Stage: stage, Command: command, ExitCode: exitCode}
}

func NewMeasurementWrap(stage Stage, command string, err error) *MeasurementError {
	return &MeasurementError{Stage: stage, Command: command, Err: err}
}

// IsMeasurement reports whether err carries a MeasurementError anywhere in its chain.
func IsMeasurement(err error) bool {
	var me *MeasurementError
	return errors.As(err, &me)
}
