package palette

import (
	"cmp"
	"slices"
)

const (
	// SampleStride is the pixel step used when walking a buffer.
	SampleStride = 4

	// AlphaCutoff is the minimum alpha for a pixel to be counted.
	AlphaCutoff = 128

	// MinDistanceSq is the squared distance every palette colour must exceed
	// against all colours accepted before it.
	MinDistanceSq = 40 * 40

	// MaxColors is the palette size limit.
	MaxColors = 5
)

// FrequencyTable counts sampled pixels per quantized colour.
type FrequencyTable map[Color]int

// Entry is a quantized colour with its sample count.
type Entry struct {
	Color Color
	Count int
}

// Sample walks every SampleStride-th pixel of buf, drops pixels with alpha
// below AlphaCutoff and counts the rest by quantized colour.
// buf is assumed valid; see PixelBuffer.Validate.
func Sample(buf PixelBuffer) FrequencyTable {
	table := make(FrequencyTable)
	step := SampleStride * 4
	for i := 0; i+3 < len(buf.Pix); i += step {
		if buf.Pix[i+3] < AlphaCutoff {
			continue
		}
		c := Color{R: buf.Pix[i], G: buf.Pix[i+1], B: buf.Pix[i+2]}
		table[c.Quantize()]++
	}
	return table
}

// Total returns the number of counted samples.
func (t FrequencyTable) Total() int {
	n := 0
	for _, count := range t {
		n += count
	}
	return n
}

// Rank orders the table by count, most frequent first. Equal counts are
// ordered by ascending packed 0xRRGGBB value so the result is deterministic.
func Rank(table FrequencyTable) []Entry {
	entries := make([]Entry, 0, len(table))
	for c, count := range table {
		entries = append(entries, Entry{Color: c, Count: count})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Color.Packed(), b.Color.Packed())
	})
	return entries
}

// Dominant returns the first ranked colour, or Black when ranked is empty.
func Dominant(ranked []Entry) Color {
	if len(ranked) == 0 {
		return Black
	}
	return ranked[0].Color
}

// SelectPalette walks ranked in order and accepts a colour only when its
// squared distance to every accepted colour is strictly greater than
// MinDistanceSq. At most limit colours are returned.
func SelectPalette(ranked []Entry, limit int) []Entry {
	accepted := make([]Entry, 0, limit)
	for _, candidate := range ranked {
		if len(accepted) >= limit {
			break
		}
		if isDistinct(candidate.Color, accepted) {
			accepted = append(accepted, candidate)
		}
	}
	return accepted
}

func isDistinct(c Color, accepted []Entry) bool {
	for _, a := range accepted {
		if a.Color.DistanceSq(c) <= MinDistanceSq {
			return false
		}
	}
	return true
}

// Result is the outcome of a palette extraction.
type Result struct {
	// Dominant is the most frequent quantized colour, or black if no pixel
	// was opaque enough to count.
	Dominant Color `json:"dominant"`

	// Palette holds up to MaxColors mutually distinct colours, most frequent first.
	Palette []Color `json:"palette"`

	// Counts holds the sample count of each palette colour.
	Counts []int `json:"counts,omitempty"`

	// Samples is the number of pixels that passed the alpha cutoff.
	Samples int `json:"samples"`
}

// Hex returns the palette colours as hex strings.
func (r *Result) Hex() []string {
	out := make([]string, len(r.Palette))
	for i, c := range r.Palette {
		out[i] = c.Hex()
	}
	return out
}

// Empty reports whether no pixel qualified for counting.
func (r *Result) Empty() bool {
	return len(r.Palette) == 0
}

// Extract runs the full pipeline over an already downscaled buffer.
func Extract(buf PixelBuffer) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	table := Sample(buf)
	ranked := Rank(table)
	selected := SelectPalette(ranked, MaxColors)

	result := &Result{
		Dominant: Dominant(ranked),
		Palette:  make([]Color, len(selected)),
		Counts:   make([]int, len(selected)),
		Samples:  table.Total(),
	}
	for i, e := range selected {
		result.Palette[i] = e.Color
		result.Counts[i] = e.Count
	}
	return result, nil
}
