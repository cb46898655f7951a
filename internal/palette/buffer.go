package palette

import (
	"errors"
	"fmt"
	"math"
)

// MaxDimension bounds the longest side of the buffer handed to Extract.
const MaxDimension = 128

var (
	// ErrInvalidBuffer is returned when the pixel data does not match the
	// declared dimensions.
	ErrInvalidBuffer = errors.New("invalid pixel buffer")

	// ErrDegenerateImage is returned for images with a zero or negative dimension.
	ErrDegenerateImage = errors.New("degenerate image")
)

// PixelBuffer is a row-major, non-premultiplied RGBA pixel buffer.
// Each pixel occupies 4 consecutive bytes: R, G, B, A.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// Validate checks the buffer dimensions against its length.
func (b PixelBuffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDegenerateImage, b.Width, b.Height)
	}
	// Width*Height*4 may overflow int, so compare by division.
	n := len(b.Pix)
	if n%4 != 0 || (n/4)%b.Width != 0 || n/4/b.Width != b.Height {
		return fmt.Errorf("%w: %dx%d does not match %d bytes", ErrInvalidBuffer, b.Width, b.Height, n)
	}
	return nil
}

// TargetSize returns the dimensions an image of w x h is downscaled to before
// analysis. Images never grow and each side is at least one pixel.
func TargetSize(w, h int) (int, int, error) {
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrDegenerateImage, w, h)
	}

	scale := math.Min(math.Min(float64(MaxDimension)/float64(w), float64(MaxDimension)/float64(h)), 1.0)
	tw := max(int(math.Floor(float64(w)*scale)), 1)
	th := max(int(math.Floor(float64(h)*scale)), 1)
	return tw, th, nil
}
