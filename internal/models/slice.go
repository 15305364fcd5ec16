package models

// Slice represents a single image plane of a stack with metadata
type Slice struct {
	// Pixels holds the intensities as a 1D array in row-major order
	Pixels []float64

	// Width and Height are the dimensions of the slice in pixels
	Width  int
	Height int

	// Index is the position of this slice in the stack
	Index int

	// Filename is the original filename of the slice, empty for in-memory data
	Filename string

	// BitDepth is the sample depth of the source file (8 or 16)
	BitDepth int
}

// Len returns the number of pixels the slice should hold
func (s *Slice) Len() int {
	return s.Width * s.Height
}

// Stack is an ordered sequence of equally sized slices
type Stack struct {
	Slices []*Slice

	// Width and Height are shared by every slice
	Width  int
	Height int
}

// SliceSummary records what background removal did to one slice
type SliceSummary struct {
	Index    int
	Filename string

	// BorderMean and BorderStdDev are the noise estimate from the slice border
	BorderMean   float64
	BorderStdDev float64

	// Threshold is cutoff times BorderStdDev
	Threshold float64

	// SignalPixels counts pixels that kept a non-zero value
	SignalPixels int

	// TotalPixels is Width*Height
	TotalPixels int
}

// SignalFraction returns the share of pixels classified as signal
func (s SliceSummary) SignalFraction() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.SignalPixels) / float64(s.TotalPixels)
}
