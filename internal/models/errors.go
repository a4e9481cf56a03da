package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures by how the caller should react.
type ErrorKind int

const (
	// KindInput: the image or the request is unusable. Halt the pipeline.
	KindInput ErrorKind = iota + 1
	// KindGeometry: the shapes do not support the operation. The user may
	// retry with other parameters.
	KindGeometry
	// KindAsset: a pedestal asset is missing or corrupt. Non-fatal, a
	// placeholder is substituted.
	KindAsset
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindGeometry:
		return "geometry"
	case KindAsset:
		return "asset"
	default:
		return "unknown"
	}
}

var (
	ErrNoForeground     = errors.New("no foreground found")
	ErrNoContour        = errors.New("no contour found")
	ErrEmptyFootprint   = errors.New("footprint requested on empty mask")
	ErrCannotMerge      = errors.New("cannot merge boundaries")
	ErrAssetUnavailable = errors.New("pedestal asset unavailable")
	ErrUnknownPedestal  = errors.New("unknown pedestal")
	ErrInvalidState     = errors.New("operation not allowed in current state")
	ErrInvalidParams    = errors.New("invalid parameters")
)

// PipelineError carries the stage name and kind alongside the cause.
type PipelineError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func InputError(stage string, err error) error {
	return &PipelineError{Kind: KindInput, Stage: stage, Err: err}
}

func GeometryError(stage string, err error) error {
	return &PipelineError{Kind: KindGeometry, Stage: stage, Err: err}
}

func AssetError(stage string, err error) error {
	return &PipelineError{Kind: KindAsset, Stage: stage, Err: err}
}

// KindOf returns the kind of the first PipelineError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func IsInput(err error) bool    { return KindOf(err) == KindInput }
func IsGeometry(err error) bool { return KindOf(err) == KindGeometry }
func IsAsset(err error) bool    { return KindOf(err) == KindAsset }
