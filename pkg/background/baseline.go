package background

// SubtractBaseline subtracts mean from every pixel in place and rectifies the
// result, so each pixel becomes max(p-mean, 0). Pixels at or below the
// baseline end up exactly zero.
func SubtractBaseline(pixels []float64, mean float64) {
	for i, p := range pixels {
		d := p - mean
		if d > 0 {
			pixels[i] = d
		} else {
			pixels[i] = 0
		}
	}
}
