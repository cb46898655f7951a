package palette

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

// stubResizer returns a solid buffer of the requested size and records the call.
type stubResizer struct {
	fill   [4]byte
	err    error
	calls  int
	width  int
	height int
}

func (s *stubResizer) Resize(_ image.Image, width, height int) (PixelBuffer, error) {
	s.calls++
	s.width, s.height = width, height
	if s.err != nil {
		return PixelBuffer{}, s.err
	}
	pix := make([]byte, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:], s.fill[:])
	}
	return PixelBuffer{Width: width, Height: height, Pix: pix}, nil
}

func TestAnalyzerDownscales(t *testing.T) {
	resizer := &stubResizer{fill: [4]byte{0x35, 0x87, 0xc2, 255}}
	analyzer := NewAnalyzer(resizer)

	img := image.NewNRGBA(image.Rect(0, 0, 1024, 512))
	result, err := analyzer.Analyze(context.Background(), img)
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}

	if resizer.width != 128 || resizer.height != 64 {
		t.Errorf("resized to %dx%d, want 128x64", resizer.width, resizer.height)
	}
	if result.Dominant.Hex() != "#3080c0" {
		t.Errorf("Dominant = %s, want #3080c0", result.Dominant.Hex())
	}
	if len(result.Palette) != 1 {
		t.Errorf("palette = %v, want a single colour", result.Hex())
	}
	if want := 128 * 64 / SampleStride; result.Samples != want {
		t.Errorf("Samples = %d, want %d", result.Samples, want)
	}
}

func TestAnalyzerErrors(t *testing.T) {
	t.Run("nil image", func(t *testing.T) {
		if _, err := NewAnalyzer(&stubResizer{}).Analyze(context.Background(), nil); err == nil {
			t.Error("expected error for nil image")
		}
	})

	t.Run("empty image", func(t *testing.T) {
		resizer := &stubResizer{}
		img := image.NewNRGBA(image.Rect(0, 0, 0, 10))
		_, err := NewAnalyzer(resizer).Analyze(context.Background(), img)
		if !errors.Is(err, ErrDegenerateImage) {
			t.Errorf("error = %v, want ErrDegenerateImage", err)
		}
		if resizer.calls != 0 {
			t.Errorf("resizer called %d times for degenerate image", resizer.calls)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		resizer := &stubResizer{}
		_, err := NewAnalyzer(resizer).Analyze(ctx, image.NewNRGBA(image.Rect(0, 0, 4, 4)))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if resizer.calls != 0 {
			t.Errorf("resizer called after cancellation")
		}
	})

	t.Run("resize failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewAnalyzer(&stubResizer{err: boom}).Analyze(context.Background(), image.NewNRGBA(image.Rect(0, 0, 4, 4)))
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want wrapped boom", err)
		}
	})
}

func TestAnalyzerConcurrent(t *testing.T) {
	analyzer := NewAnalyzer(&nearestResizer{})

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}

	want, err := analyzer.Analyze(context.Background(), img)
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			got, err := analyzer.Analyze(context.Background(), img)
			if err == nil && got.Dominant != want.Dominant {
				err = errors.New("dominant colour differs between concurrent calls")
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}

// nearestResizer copies pixels without filtering; enough for the tests here.
type nearestResizer struct{}

func (nearestResizer) Resize(src image.Image, width, height int) (PixelBuffer, error) {
	b := src.Bounds()
	pix := make([]byte, 0, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x*b.Dx()/width, b.Min.Y+y*b.Dy()/height)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B, c.A)
		}
	}
	return PixelBuffer{Width: width, Height: height, Pix: pix}, nil
}
