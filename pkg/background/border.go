package background

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BorderStats holds the noise estimate derived from the outer ring of an image.
type BorderStats struct {
	// Mean is the arithmetic mean of the border samples, used as the baseline.
	Mean float64

	// StdDev is the sample standard deviation (n-1 denominator) of the border
	// samples. It scales the classification threshold.
	StdDev float64

	// Count is the number of border samples, 2*width + 2*(height-2).
	Count int
}

// BorderStatistics estimates the background level and spread from the
// outermost rows and columns of a width x height image.
//
// The border multiset is the top row, the bottom row, and the first and last
// column of every interior row, so corners are counted once. The result only
// depends on those samples; interior pixels are never read.
func BorderStatistics(pixels []float64, width, height int) (BorderStats, error) {
	if width < 0 || height < 0 {
		return BorderStats{}, &DegenerateInputError{
			Width: width, Height: height, Reason: "negative dimensions",
		}
	}
	if len(pixels) != width*height {
		return BorderStats{}, &ShapeMismatchError{What: "image", Want: width * height, Got: len(pixels)}
	}

	count := borderCount(width, height)
	if count <= 1 {
		return BorderStats{}, &DegenerateInputError{
			Width: width, Height: height, BorderCount: count,
			Reason: "at least two border samples are needed to estimate spread",
		}
	}

	samples := borderSamples(pixels, width, height)
	mean, stddev := stat.MeanStdDev(samples, nil)
	if math.IsNaN(mean) || math.IsInf(mean, 0) || math.IsNaN(stddev) || math.IsInf(stddev, 0) {
		return BorderStats{}, &DegenerateInputError{
			Width: width, Height: height, BorderCount: count,
			Reason: "border statistics are not finite",
		}
	}

	return BorderStats{Mean: mean, StdDev: stddev, Count: count}, nil
}

// borderCount returns the size of the border multiset. Images narrower or
// shorter than two pixels have no well defined ring and report zero.
func borderCount(width, height int) int {
	if width < 2 || height < 2 {
		return 0
	}
	return 2*width + 2*(height-2)
}

// borderSamples gathers the border multiset in a fixed order: top row,
// bottom row, then left/right pairs for each interior row.
func borderSamples(pixels []float64, width, height int) []float64 {
	samples := make([]float64, 0, borderCount(width, height))
	samples = append(samples, pixels[:width]...)
	samples = append(samples, pixels[(height-1)*width:]...)
	for r := 1; r < height-1; r++ {
		samples = append(samples, pixels[r*width], pixels[r*width+width-1])
	}
	return samples
}
