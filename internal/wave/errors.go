package wave

import "errors"

// Domain errors for the density pipeline.
var (
	// ErrDataUnavailable indicates the requested run could not be retrieved.
	ErrDataUnavailable = errors.New("wave: run data unavailable")

	// ErrMalformedDataset indicates missing fields or violated shape invariants.
	ErrMalformedDataset = errors.New("wave: malformed dataset")

	// ErrInvalidGrid indicates a non-positive resolution or empty axis range.
	ErrInvalidGrid = errors.New("wave: invalid grid")

	// ErrEmptyDataset indicates zero samples along some axis.
	ErrEmptyDataset = errors.New("wave: empty dataset")

	// ErrShapeMismatch indicates a slice that does not match the axes.
	ErrShapeMismatch = errors.New("wave: slice shape does not match axes")

	// ErrEmptyFrameSequence indicates an animation with no frames.
	ErrEmptyFrameSequence = errors.New("wave: empty frame sequence")

	// ErrWriteFailure indicates the artifact could not be persisted.
	ErrWriteFailure = errors.New("wave: write failure")
)

// Pipeline stages reported by StageError.
const (
	StageLoad     = "load"
	StageAxes     = "axes"
	StageDensity  = "density"
	StageRender   = "render"
	StageAssemble = "assemble"
)

// StageError wraps an error with the pipeline stage that produced it.
type StageError struct {
	Stage   string
	Wrapped error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Wrapped.Error()
}

func (e *StageError) Unwrap() error {
	return e.Wrapped
}
