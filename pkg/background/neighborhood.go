package background

import "fmt"

// Ring is a fixed set of neighbors around a center pixel, stored as flat
// index offsets for an image of a particular width. The center itself is
// never part of a ring.
type Ring struct {
	// Name identifies the test in logs and errors ("close" or "far").
	Name string

	// Radius is the Chebyshev distance of the outermost ring cell. Pixels
	// closer than Radius to an edge must be masked before classification.
	Radius int

	offsets []int
}

// CloseRing returns the 8 cells of the 3x3 block around a pixel, minus the
// center:
//
//	X X X
//	X P X
//	X X X
func CloseRing(width int) Ring {
	return Ring{
		Name:   "close",
		Radius: 1,
		offsets: []int{
			-width - 1, -width, -width + 1,
			-1, 1,
			width - 1, width, width + 1,
		},
	}
}

// FarRing returns the 16 cells at Chebyshev distance exactly 2, i.e. the
// outline of the 5x5 block around a pixel:
//
//	X X X X X
//	X . . . X
//	X . P . X
//	X . . . X
//	X X X X X
func FarRing(width int) Ring {
	w2 := 2 * width
	return Ring{
		Name:   "far",
		Radius: 2,
		offsets: []int{
			-w2 - 2, -w2 - 1, -w2, -w2 + 1, -w2 + 2,
			-width - 2, -width + 2,
			-2, 2,
			width - 2, width + 2,
			w2 - 2, w2 - 1, w2, w2 + 1, w2 + 2,
		},
	}
}

// Size returns the number of cells in the ring.
func (r Ring) Size() int {
	return len(r.offsets)
}

// Mean returns the average of the ring cells around index i. The caller
// guarantees the whole ring lies inside pixels.
func (r Ring) Mean(pixels []float64, i int) float64 {
	sum := 0.0
	for _, o := range r.offsets {
		sum += pixels[i+o]
	}
	return sum / float64(len(r.offsets))
}

// Classify marks as Background every Eligible pixel whose ring mean is
// strictly below threshold. A ring mean equal to the threshold counts as
// signal.
//
// Only pixel values are read, never the mask of neighbors, so the outcome
// does not depend on the scan order. Pixels are not modified.
func Classify(pixels []float64, mask Mask, width int, ring Ring, threshold float64) error {
	if len(pixels) != len(mask) {
		return &ShapeMismatchError{What: "mask", Want: len(mask), Got: len(pixels)}
	}
	if err := checkFringe(mask, width, ring.Radius); err != nil {
		return fmt.Errorf("%s test: %w", ring.Name, err)
	}

	for i, s := range mask {
		if s != Eligible {
			continue
		}
		if ring.Mean(pixels, i) < threshold {
			mask[i] = Background
		}
	}
	return nil
}

// ClassifyClose runs Classify with the 3x3 ring.
func ClassifyClose(pixels []float64, mask Mask, width int, threshold float64) error {
	return Classify(pixels, mask, width, CloseRing(width), threshold)
}

// ClassifyFar runs Classify with the 5x5 ring.
func ClassifyFar(pixels []float64, mask Mask, width int, threshold float64) error {
	return Classify(pixels, mask, width, FarRing(width), threshold)
}

// checkFringe verifies once per pass that no Eligible pixel sits within
// radius of an edge, which is what makes the unchecked ring reads safe.
func checkFringe(mask Mask, width, radius int) error {
	if width <= 0 {
		return &DegenerateInputError{Width: width, Reason: "width must be positive"}
	}
	if len(mask)%width != 0 {
		return &ShapeMismatchError{What: "mask rows", Want: len(mask) - len(mask)%width, Got: len(mask)}
	}
	height := len(mask) / width
	for y := 0; y < height; y++ {
		edgeRow := y < radius || y >= height-radius
		for x := 0; x < width; x++ {
			if !edgeRow && x >= radius && x < width-radius {
				// skip straight to the right-hand fringe
				x = width - radius - 1
				continue
			}
			if mask[y*width+x] == Eligible {
				return fmt.Errorf("%w: pixel (%d,%d) is within %d of the edge", ErrFringeNotMasked, x, y, radius)
			}
		}
	}
	return nil
}
