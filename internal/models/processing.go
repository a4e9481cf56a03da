package models

import (
	"fmt"
)

// Params are the user-facing knobs of one pipeline run.
type Params struct {
	Gap       int    `json:"gap"`
	Thickness int    `json:"thickness"`
	Pedestal  string `json:"pedestal"`
}

// DefaultParams mirrors the values the tool has always shipped with.
func DefaultParams() Params {
	return Params{Gap: 20, Thickness: 3, Pedestal: "16mm"}
}

// Validate checks ranges that every stage relies on.
func (p Params) Validate() error {
	if p.Gap < 0 {
		return NewValidationError("gap", p.Gap, "must be >= 0")
	}
	if p.Thickness < 0 {
		return NewValidationError("thickness", p.Thickness, "must be >= 0")
	}
	if p.Gap+p.Thickness > 512 {
		return NewValidationError("gap+thickness", p.Gap+p.Thickness, "must be <= 512")
	}
	return nil
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Parameter string
	Value     interface{}
	Message   string
}

// NewValidationError creates a new validation error
func NewValidationError(parameter string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Parameter: parameter,
		Value:     value,
		Message:   message,
	}
}

// Error returns the error message
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for parameter '%s' with value '%v': %s",
		ve.Parameter, ve.Value, ve.Message)
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidParams).
func (ve *ValidationError) Unwrap() error {
	return ErrInvalidParams
}

// State is the position of a pipeline in its lifecycle.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateOutlined
	StateComposited
	StateMerged
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateOutlined:
		return "outlined"
	case StateComposited:
		return "composited"
	case StateMerged:
		return "merged"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
