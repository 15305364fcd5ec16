package background

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateInput is matched by every *DegenerateInputError.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrShapeMismatch is matched by every *ShapeMismatchError.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidOptions is returned by Options.Validate.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrFringeNotMasked is returned by Classify when a pixel whose ring
	// would leave the image is still Eligible.
	ErrFringeNotMasked = errors.New("fringe not masked")
)

// DegenerateInputError reports an image whose border cannot yield a usable
// noise estimate, or which is too small for the requested neighborhood test.
type DegenerateInputError struct {
	Width       int
	Height      int
	BorderCount int
	Reason      string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input %dx%d (border samples: %d): %s",
		e.Width, e.Height, e.BorderCount, e.Reason)
}

func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}

// ShapeMismatchError reports two buffers that should have the same length
// but don't. It indicates width/height were wired incorrectly by the caller.
type ShapeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want %d samples, got %d", e.What, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}
