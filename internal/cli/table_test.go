package cli

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/swatch/internal/palette"
)

func TestTableAddRowNormalisesWidth(t *testing.T) {
	table := NewTable([]string{"SOURCE", "DOMINANT"})
	table.AddRow([]string{"a.png"})
	table.AddRow([]string{"b.png", "#000000", "extra"})

	want := [][]string{{"a.png", ""}, {"b.png", "#000000"}}
	if diff := cmp.Diff(want, table.rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableRender(t *testing.T) {
	table := NewTable([]string{"SOURCE", "DOMINANT"})
	table.AddRow([]string{"a.png", "#f00000"})
	table.AddRow([]string{"wallpaper.jpg", "#3080c0"})

	want := strings.Join([]string{
		"SOURCE         DOMINANT",
		"-------------  --------",
		"a.png          #f00000",
		"wallpaper.jpg  #3080c0",
		"",
	}, "\n")
	if diff := cmp.Diff(want, table.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestTableRenderEmpty(t *testing.T) {
	if got := NewTable(nil).Render(); got != "" {
		t.Errorf("Render() with no headers = %q, want empty", got)
	}

	got := NewTable([]string{"SOURCE", "PALETTE"}).Render()
	if lines := strings.Split(strings.TrimSpace(got), "\n"); len(lines) != 2 {
		t.Errorf("expected header and separator only, got %q", got)
	}
}

func TestTableRenderIgnoresANSIWidth(t *testing.T) {
	red := palette.Color{R: 0xf0}
	table := NewTable([]string{"DOMINANT", "PALETTE"})
	table.AddRow([]string{SwatchWithText(red, red.Hex(), 9), "#f00000"})

	lines := strings.Split(table.Render(), "\n")
	header, row := lines[0], ansiPattern.ReplaceAllString(lines[2], "")

	if got, want := strings.LastIndex(row, "#f00000"), strings.Index(header, "PALETTE"); got != want {
		t.Errorf("palette column starts at %d, want %d (row %q)", got, want, row)
	}
}

func TestTableWrapsLongColumns(t *testing.T) {
	table := NewTable([]string{"SOURCE", "PALETTE"})
	table.SetColumnMaxWidth(1, 15)
	table.AddRow([]string{"a.png", "#f00000 #00f000 #0000f0"})

	want := strings.Join([]string{
		"SOURCE  PALETTE",
		"------  ---------------",
		"a.png   #f00000 #00f000",
		"        #0000f0",
		"",
	}, "\n")
	if diff := cmp.Diff(want, table.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"#fff", 7, "#fff   "},
		{"#ffffff", 7, "#ffffff"},
		{"#ffffff", 3, "#ffffff"},
		{"", 3, "   "},
		{"\033[48;2;0;0;0mx\033[0m", 3, "\033[48;2;0;0;0mx\033[0m  "},
	}

	for _, tt := range tests {
		if got := padRight(tt.input, tt.width); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{name: "fits", text: "#000000 #ffffff", width: 20, want: []string{"#000000 #ffffff"}},
		{name: "word boundary", text: "#000000 #ffffff #f00000", width: 15, want: []string{"#000000 #ffffff", "#f00000"}},
		{name: "long word", text: "abcdefghij", width: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "no limit", text: "abc def", width: 0, want: []string{"abc def"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, wrapText(tt.text, tt.width)); diff != "" {
				t.Errorf("wrapText() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
