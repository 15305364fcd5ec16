package background

// State is the classification of a single pixel during one pipeline run.
type State uint8

const (
	// Eligible pixels are still candidates for signal.
	Eligible State = iota
	// Background pixels are zeroed when the mask is applied.
	Background
)

func (s State) String() string {
	switch s {
	case Eligible:
		return "eligible"
	case Background:
		return "background"
	default:
		return "unknown"
	}
}

// Mask is a per-pixel classification parallel to an image buffer.
// Entries only ever move from Eligible to Background.
type Mask []State

// NewMask returns a mask of n entries, all Eligible.
func NewMask(n int) Mask {
	return make(Mask, n)
}

// FringeWidth returns how far from each edge pixels must be excluded for the
// enabled neighborhood tests to stay inside the image. The far test reaches
// two pixels out, the close test one.
func FringeWidth(close, far bool) int {
	switch {
	case far:
		return 2
	case close:
		return 1
	default:
		return 0
	}
}

// MaskFringe marks as Background every pixel closer than f to any edge of an
// image of the given width. A fringe of zero leaves the mask untouched.
func (m Mask) MaskFringe(width, f int) {
	if f <= 0 || width <= 0 {
		return
	}
	for i := range m {
		col := i % width
		if col < f || col >= width-f {
			m[i] = Background
		}
	}

	band := f * width
	if band > len(m) {
		band = len(m)
	}
	for i := 0; i < band; i++ {
		m[i] = Background
		m[len(m)-1-i] = Background
	}
}

// MaskZeros marks as Background every pixel that is already zero (or below)
// after baseline subtraction. Calling it repeatedly is harmless.
func (m Mask) MaskZeros(pixels []float64) error {
	if len(pixels) != len(m) {
		return &ShapeMismatchError{What: "mask", Want: len(m), Got: len(pixels)}
	}
	for i, p := range pixels {
		if p <= 0 {
			m[i] = Background
		}
	}
	return nil
}

// Apply zeroes every pixel marked Background. Eligible pixels keep their
// value. The buffers must have identical length; otherwise nothing is
// modified and a *ShapeMismatchError is returned.
func (m Mask) Apply(pixels []float64) error {
	if len(pixels) != len(m) {
		return &ShapeMismatchError{What: "mask", Want: len(m), Got: len(pixels)}
	}
	for i, s := range m {
		if s == Background {
			pixels[i] = 0
		}
	}
	return nil
}

// Count returns the number of Eligible and Background entries.
func (m Mask) Count() (eligible, background int) {
	for _, s := range m {
		if s == Background {
			background++
		} else {
			eligible++
		}
	}
	return eligible, background
}
