package image

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/jmylchreest/swatch/internal/palette"
)

// Filter names a resampling kernel.
type Filter string

const (
	// FilterNearest picks the nearest source pixel. Fastest, most aliasing.
	FilterNearest Filter = "nearest"

	// FilterApproxBiLinear mixes nearest and bilinear sampling.
	FilterApproxBiLinear Filter = "approx-bilinear"

	// FilterBiLinear is a tent kernel; closest to browser canvas scaling.
	FilterBiLinear Filter = "bilinear"

	// FilterCatmullRom is a cubic kernel. Slowest, sharpest.
	FilterCatmullRom Filter = "catmull-rom"
)

// DefaultFilter is used when no filter is configured.
const DefaultFilter = FilterBiLinear

// ValidFilters returns the accepted filter names.
func ValidFilters() []Filter {
	return []Filter{FilterNearest, FilterApproxBiLinear, FilterBiLinear, FilterCatmullRom}
}

// ParseFilter converts a name into a Filter. An empty name yields DefaultFilter.
func ParseFilter(name string) (Filter, error) {
	if name == "" {
		return DefaultFilter, nil
	}
	for _, f := range ValidFilters() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown resample filter: %s (valid filters: %v)", name, ValidFilters())
}

func (f Filter) interpolator() draw.Interpolator {
	switch f {
	case FilterNearest:
		return draw.NearestNeighbor
	case FilterApproxBiLinear:
		return draw.ApproxBiLinear
	case FilterCatmullRom:
		return draw.CatmullRom
	default:
		return draw.BiLinear
	}
}

// Resizer resamples images into palette.PixelBuffer values using x/image/draw.
type Resizer struct {
	filter Filter
}

// NewResizer creates a Resizer for the given filter.
func NewResizer(filter Filter) *Resizer {
	if filter == "" {
		filter = DefaultFilter
	}
	return &Resizer{filter: filter}
}

// Filter returns the resampling filter in use.
func (r *Resizer) Filter() Filter {
	return r.filter
}

// Resize scales src to width x height and returns non-premultiplied RGBA pixels.
// When the size is unchanged the pixels are copied without filtering.
func (r *Resizer) Resize(src image.Image, width, height int) (palette.PixelBuffer, error) {
	if src == nil {
		return palette.PixelBuffer{}, fmt.Errorf("image cannot be nil")
	}
	if width <= 0 || height <= 0 {
		return palette.PixelBuffer{}, fmt.Errorf("%w: target %dx%d", palette.ErrDegenerateImage, width, height)
	}

	sb := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if sb.Dx() == width && sb.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
	} else {
		r.filter.interpolator().Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	}

	return palette.PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    dst.Pix,
	}, nil
}
