// Package background removes a roughly uniform background from a single
// intensity image using only the statistics of the image's own border.
//
// The border ring yields a baseline (mean) and a spread (sample standard
// deviation). The baseline is subtracted from every pixel, and each interior
// pixel is then kept or zeroed depending on whether the mean of a ring of
// neighbors reaches cutoff x spread.
package background

import (
	"fmt"
	"math"
)

// Options selects which neighborhood tests run and how strict they are.
type Options struct {
	// Close enables the 3x3 ring test.
	Close bool

	// Far enables the 5x5 ring test.
	Far bool

	// Cutoff multiplies the border standard deviation to form the threshold.
	Cutoff float64
}

// DefaultOptions matches the defaults offered to users: both tests on,
// three sigma.
func DefaultOptions() Options {
	return Options{Close: true, Far: true, Cutoff: 3.0}
}

// Validate rejects a cutoff that is negative or not a finite number.
func (o Options) Validate() error {
	if math.IsNaN(o.Cutoff) || math.IsInf(o.Cutoff, 0) {
		return fmt.Errorf("%w: cutoff must be finite, got %v", ErrInvalidOptions, o.Cutoff)
	}
	if o.Cutoff < 0 {
		return fmt.Errorf("%w: cutoff must be non-negative, got %v", ErrInvalidOptions, o.Cutoff)
	}
	return nil
}

// Masking reports whether any neighborhood test is enabled.
func (o Options) Masking() bool {
	return o.Close || o.Far
}

// Result is the outcome of processing one image.
type Result struct {
	// Pixels is the background-subtracted image, same length as the input.
	Pixels []float64

	// Mask is the final classification. It is nil when no test was enabled.
	Mask Mask

	// Stats are the border statistics the run was based on.
	Stats BorderStats

	// Threshold is Cutoff x Stats.StdDev.
	Threshold float64
}

// SignalCount returns how many pixels survived with a non-zero value.
func (r *Result) SignalCount() int {
	n := 0
	for _, p := range r.Pixels {
		if p > 0 {
			n++
		}
	}
	return n
}

// ProcessSlice runs the full background removal on one width x height image.
// The input slice is not modified.
//
// Stages run in a fixed order: border statistics, baseline subtraction,
// fringe masking, then the close and/or far tests (each preceded by zero
// masking), and finally the mask is applied. With neither test enabled the
// baseline-subtracted image is returned as is. Slices holding NaN or
// infinite samples are rejected with a DegenerateInputError.
func ProcessSlice(pixels []float64, width, height int, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	stats, err := BorderStatistics(pixels, width, height)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(pixels, width, height); err != nil {
		return nil, err
	}
	if err := checkNeighborhoodFits(width, height, opts); err != nil {
		return nil, err
	}

	out := make([]float64, len(pixels))
	copy(out, pixels)
	SubtractBaseline(out, stats.Mean)

	res := &Result{
		Pixels:    out,
		Stats:     stats,
		Threshold: opts.Cutoff * stats.StdDev,
	}
	if !opts.Masking() {
		return res, nil
	}

	mask := NewMask(len(out))
	mask.MaskFringe(width, FringeWidth(opts.Close, opts.Far))

	if opts.Close {
		if err := mask.MaskZeros(out); err != nil {
			return nil, err
		}
		if err := ClassifyClose(out, mask, width, res.Threshold); err != nil {
			return nil, err
		}
	}
	if opts.Far {
		if err := mask.MaskZeros(out); err != nil {
			return nil, err
		}
		if err := ClassifyFar(out, mask, width, res.Threshold); err != nil {
			return nil, err
		}
	}

	if err := mask.Apply(out); err != nil {
		return nil, err
	}
	res.Mask = mask
	return res, nil
}

// checkFinite rejects NaN and infinite samples, which would otherwise be
// clamped into the baseline-subtracted image as zero or full scale.
func checkFinite(pixels []float64, width, height int) error {
	for i, v := range pixels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DegenerateInputError{
				Width: width, Height: height, BorderCount: borderCount(width, height),
				Reason: fmt.Sprintf("non-finite pixel at index %d", i),
			}
		}
	}
	return nil
}

func checkNeighborhoodFits(width, height int, opts Options) error {
	need := 0
	switch {
	case opts.Far:
		need = 5
	case opts.Close:
		need = 3
	}
	if width < need || height < need {
		return &DegenerateInputError{
			Width: width, Height: height, BorderCount: borderCount(width, height),
			Reason: fmt.Sprintf("enabled neighborhood test needs at least %dx%d pixels", need, need),
		}
	}
	return nil
}
