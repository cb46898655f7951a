package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/swatch/internal/config"
	"github.com/jmylchreest/swatch/internal/palette"
)

// outputOptions are the rendering flags shared by extract and watch.
type outputOptions struct {
	format  string
	preview string
}

func addOutputFlags(fs *pflag.FlagSet, o *outputOptions) {
	fs.StringVarP(&o.format, "format", "f", "", "output format (hex, rgb, json, table) (default from config: hex)")
	fs.StringVar(&o.preview, "preview", "", "show colour swatches (auto, always, never) (default from config: auto)")
}

// resolve fills unset flags from cfg and validates the result.
func (o *outputOptions) resolve(cfg *config.Config) error {
	if o.format == "" {
		o.format = cfg.Format
	}
	if o.preview == "" {
		o.preview = cfg.Preview
	}
	if !slices.Contains(config.ValidFormats(), o.format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", o.format, strings.Join(config.ValidFormats(), ", "))
	}
	if !slices.Contains(config.ValidPreviewModes(), o.preview) {
		return fmt.Errorf("invalid preview mode: %s (valid: %s)", o.preview, strings.Join(config.ValidPreviewModes(), ", "))
	}
	return nil
}

// sourceResult pairs a palette with the input it was extracted from.
type sourceResult struct {
	Source string `json:"source"`
	*palette.Result
}

// formatResults renders results in the requested format. A single result is
// rendered without a source heading.
func formatResults(results []sourceResult, format string, showPreview bool) (string, error) {
	switch format {
	case config.FormatHex:
		return formatBlocks(results, showPreview, palette.Color.Hex), nil
	case config.FormatRGB:
		return formatBlocks(results, showPreview, palette.Color.String), nil
	case config.FormatJSON:
		return formatJSON(results)
	case config.FormatTable:
		return formatTable(results, showPreview), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatBlocks(results []sourceResult, showPreview bool, label func(palette.Color) string) string {
	var sb strings.Builder
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "==> %s <==\n", r.Source)
		}
		sb.WriteString("dominant: ")
		sb.WriteString(colourLine(r.Dominant, label, showPreview))
		sb.WriteString("\n")
		for _, c := range r.Palette {
			sb.WriteString(colourLine(c, label, showPreview))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func colourLine(c palette.Color, label func(palette.Color) string, showPreview bool) string {
	if showPreview {
		return Swatch(c, 0) + " " + label(c)
	}
	return label(c)
}

func formatJSON(results []sourceResult) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(results) == 1 {
		data, err = json.MarshalIndent(results[0].Result, "", "  ")
	} else {
		data, err = json.MarshalIndent(results, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("failed to convert to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func formatTable(results []sourceResult, showPreview bool) string {
	table := NewTable([]string{"SOURCE", "DOMINANT", "PALETTE"})
	for _, r := range results {
		dominant := r.Dominant.Hex()
		if showPreview {
			dominant = SwatchWithText(r.Dominant, dominant, len(dominant)+2)
		}
		table.AddRow([]string{r.Source, dominant, strings.Join(r.Hex(), " ")})
	}
	return table.Render()
}

// formatLine renders a single result on one line, as used by watch.
func formatLine(r sourceResult, format string, showPreview bool) (string, error) {
	if format == config.FormatJSON {
		data, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(data) + "\n", nil
	}

	label := palette.Color.Hex
	if format == config.FormatRGB {
		label = palette.Color.String
	}
	parts := []string{r.Source, colourLine(r.Dominant, label, showPreview)}
	for _, c := range r.Palette {
		parts = append(parts, label(c))
	}
	return strings.Join(parts, " ") + "\n", nil
}
