package palette

import (
	"encoding/json"
	"testing"
)

func TestColorHex(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		want  string
	}{
		{name: "black", color: Color{0, 0, 0}, want: "#000000"},
		{name: "white", color: Color{255, 255, 255}, want: "#ffffff"},
		{name: "red", color: Color{255, 0, 0}, want: "#ff0000"},
		{name: "zero padded", color: Color{10, 11, 12}, want: "#0a0b0c"},
		{name: "quantized", color: Color{240, 0, 0}, want: "#f00000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.color.Hex(); got != tt.want {
				t.Errorf("Hex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Color
		wantErr bool
	}{
		{name: "lowercase", input: "#1a2b3c", want: Color{0x1a, 0x2b, 0x3c}},
		{name: "uppercase", input: "#FFA500", want: Color{255, 165, 0}},
		{name: "black", input: "#000000", want: Color{}},
		{name: "missing hash", input: "1a2b3c", wantErr: true},
		{name: "short form", input: "#abc", wantErr: true},
		{name: "too long", input: "#1a2b3c4d", wantErr: true},
		{name: "bad digit", input: "#12345g", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHex(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHexRoundTrip(t *testing.T) {
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 17 {
			for b := 0; b < 256; b += 51 {
				c := Color{uint8(r), uint8(g), uint8(b)}
				got, err := ParseHex(c.Hex())
				if err != nil {
					t.Fatalf("ParseHex(%q): %v", c.Hex(), err)
				}
				if got != c {
					t.Fatalf("round trip of %+v gave %+v", c, got)
				}
			}
		}
	}
}

func TestQuantizeChannelIdempotent(t *testing.T) {
	for v := 0; v < 256; v++ {
		q := QuantizeChannel(uint8(v))
		if q%16 != 0 {
			t.Fatalf("QuantizeChannel(%d) = %d, not a multiple of 16", v, q)
		}
		if q > uint8(v) || uint8(v)-q >= 16 {
			t.Fatalf("QuantizeChannel(%d) = %d, not the floor bucket", v, q)
		}
		if QuantizeChannel(q) != q {
			t.Fatalf("QuantizeChannel not idempotent for %d", v)
		}
	}
}

func TestPackedUnpack(t *testing.T) {
	c := Color{0x12, 0x34, 0x56}
	if got := c.Packed(); got != 0x123456 {
		t.Errorf("Packed() = %#x, want 0x123456", got)
	}
	if got := Unpack(0xff123456); got != c {
		t.Errorf("Unpack() = %+v, want %+v", got, c)
	}
}

func TestDistanceSq(t *testing.T) {
	a := Color{0, 0, 0}
	b := Color{40, 0, 0}
	if got := a.DistanceSq(b); got != 1600 {
		t.Errorf("DistanceSq() = %d, want 1600", got)
	}
	if got := b.DistanceSq(a); got != 1600 {
		t.Errorf("DistanceSq() not symmetric: %d", got)
	}
	if got := (Color{255, 255, 255}).DistanceSq(a); got != 3*255*255 {
		t.Errorf("DistanceSq() = %d, want %d", got, 3*255*255)
	}
}

func TestColorJSON(t *testing.T) {
	data, err := json.Marshal([]Color{{255, 0, 0}, {0, 0, 16}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["#ff0000","#000010"]` {
		t.Errorf("Marshal = %s", data)
	}

	var back []Color
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back) != 2 || back[0] != (Color{255, 0, 0}) || back[1] != (Color{0, 0, 16}) {
		t.Errorf("Unmarshal = %+v", back)
	}
}

func TestLuminance(t *testing.T) {
	if got := (Color{}).Luminance(); got != 0 {
		t.Errorf("black luminance = %v, want 0", got)
	}
	if got := (Color{255, 255, 255}).Luminance(); got < 0.999 || got > 1.001 {
		t.Errorf("white luminance = %v, want ~1", got)
	}
}
