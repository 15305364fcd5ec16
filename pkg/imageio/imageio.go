// Package imageio loads image slices into float buffers and writes processed
// buffers back to disk.
//
// Integer samples are widened to float64 without rescaling, so an 8-bit
// slice holds values in 0..255 and a 16-bit slice values in 0..65535.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"noisesubtract/internal/models"
	"noisesubtract/pkg/background"
)

// supportedExt lists the extensions picked up when loading a directory
var supportedExt = map[string]bool{
	".tif":  true,
	".tiff": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsSupported reports whether a filename has an extension LoadStack reads
func IsSupported(name string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(name))]
}

// LoadStack loads a stack from a directory of slice files, or a single file
// as a one-slice stack. Directory entries are ordered by the number embedded
// in their name, then by name. All slices must share their dimensions.
func LoadStack(input string) (*models.Stack, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(input)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && IsSupported(e.Name()) {
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no supported images found in %s", input)
		}
		sort.Slice(names, func(i, j int) bool {
			ni, nj := extractNumber(names[i]), extractNumber(names[j])
			if ni != nj {
				return ni < nj
			}
			return names[i] < names[j]
		})
		for _, n := range names {
			paths = append(paths, filepath.Join(input, n))
		}
	} else {
		paths = []string{input}
	}

	stack := &models.Stack{}
	for i, p := range paths {
		s, err := LoadSlice(p)
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", filepath.Base(p), err)
		}
		s.Index = i

		// Store dimensions from first image
		if i == 0 {
			stack.Width, stack.Height = s.Width, s.Height
		} else if s.Width != stack.Width || s.Height != stack.Height {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d",
				filepath.Base(p), s.Width, s.Height, stack.Width, stack.Height)
		}
		stack.Slices = append(stack.Slices, s)
	}

	return stack, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// LoadSlice decodes a single image file into a slice
func LoadSlice(path string) (*models.Slice, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	pixels, depth := ToFloat(img)
	b := img.Bounds()
	return &models.Slice{
		Pixels:   pixels,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Filename: filepath.Base(path),
		BitDepth: depth,
	}, nil
}

// ToFloat converts an image to raw intensities and reports the sample depth.
// 8-bit gray stays 8-bit; every other model, colour included, is reduced to
// 16-bit luminance.
func ToFloat(img image.Image) ([]float64, int) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	result := make([]float64, width*height)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				result[y*width+x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return result, 8
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.Gray16Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				result[y*width+x] = float64(g.Y)
			}
		}
		return result, 16
	}
}

// ToImage converts intensities back to a grayscale image of the given
// depth. Values are rounded and clamped to the sample range, except that any
// positive value keeps at least one count so it never reads back as
// background.
func ToImage(pixels []float64, width, height, depth int) image.Image {
	if depth == 16 {
		img := image.NewGray16(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := clamp(pixels[y*width+x], 65535)
				img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
			}
		}
		return img
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := clamp(pixels[y*width+x], 255)
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

func clamp(v, hi float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return math.Max(1, math.Min(hi, math.Round(v)))
}

// OutputName derives the output filename for a slice: the input base name
// without extension, the suffix, and a .tif extension. In-memory slices are
// named after their index.
func OutputName(s *models.Slice, suffix string) string {
	base := strings.TrimSuffix(s.Filename, filepath.Ext(s.Filename))
	if base == "" {
		base = fmt.Sprintf("slice_%03d", s.Index)
	}
	return base + suffix + ".tif"
}

// SaveTIFF writes pixels as a deflate-compressed grayscale TIFF
func SaveTIFF(path string, pixels []float64, width, height, depth int) error {
	if len(pixels) != width*height {
		return &background.ShapeMismatchError{What: "output image", Want: width * height, Got: len(pixels)}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	img := ToImage(pixels, width, height, depth)
	if err := tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

// SaveMask writes a classification as an 8-bit PNG: 255 for eligible
// (signal) pixels and 0 for background.
func SaveMask(path string, mask background.Mask, width, height int) error {
	if len(mask) != width*height {
		return &background.ShapeMismatchError{What: "mask image", Want: width * height, Got: len(mask)}
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, s := range mask {
		if s == background.Eligible {
			img.Pix[i] = 255
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}
