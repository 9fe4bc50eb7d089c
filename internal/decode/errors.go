package decode

import "fmt"

// ConfigError reports an invalid decoder configuration. It is detected before
// any tensor work and is fatal for the whole run.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid decoder configuration (%s): %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ShapeError reports a raw prediction tensor whose size is incompatible with
// the configured grid, anchors, and classes. It is fatal for the affected
// image only.
type ShapeError struct {
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("raw prediction has %d values, want %d", e.Got, e.Want)
}

// Stage identifies a step of the decoding pipeline for error reporting.
type Stage string

const (
	StageGeometry Stage = "geometry"
	StageScores   Stage = "scores"
	StageFilter   Stage = "filter"
	StageSuppress Stage = "suppress"
	StageRescale  Stage = "rescale"
)

// StageError tags a decode failure with the pipeline stage that produced it.
// A stage failure aborts the decode for that image; batch callers record it
// and continue with the next image.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("decode failed at %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
