package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jmylchreest/swatch/internal/config"
	"github.com/jmylchreest/swatch/internal/palette"
)

// ANSI escape codes for 24-bit terminal colours.
const (
	ansiReset    = "\033[0m"
	ansiFgPrefix = "\033[38;2;"
	ansiBgPrefix = "\033[48;2;"
	ansiSuffix   = "m"
	swatchWidth  = 4
)

// Swatch returns a solid block of width cells painted in c.
func Swatch(c palette.Color, width int) string {
	if width <= 0 {
		width = swatchWidth
	}
	return background(c) + strings.Repeat(" ", width) + ansiReset
}

// SwatchWithText paints text centred on c, in black or white depending on
// which contrasts better.
func SwatchWithText(c palette.Color, text string, width int) string {
	if width <= 0 {
		width = len(text)
	}

	fg := palette.Color{R: 255, G: 255, B: 255}
	if c.Luminance() > 0.5 {
		fg = palette.Black
	}

	display := text
	if len(text) > width {
		display = text[:width]
	} else if len(text) < width {
		pad := (width - len(text)) / 2
		display = strings.Repeat(" ", pad) + text + strings.Repeat(" ", width-len(text)-pad)
	}

	return background(c) + fmt.Sprintf("%s%d;%d;%d%s", ansiFgPrefix, fg.R, fg.G, fg.B, ansiSuffix) + display + ansiReset
}

func background(c palette.Color) string {
	return fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
}

// previewEnabled resolves a preview mode against the destination writer.
// In auto mode swatches are only drawn when w is a terminal.
func previewEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.PreviewAlways:
		return true
	case config.PreviewNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}
