package image

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/swatch/internal/security"
)

// MaxDecompressedSize bounds the size of a decompressed image payload.
const MaxDecompressedSize = 64 * 1024 * 1024

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// decompress returns data unchanged unless it starts with a gzip or xz header,
// in which case the decompressed payload is returned.
func decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return readLimited(xzr, "xz")
	case bytes.HasPrefix(data, gzipMagic):
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		return readLimited(gzr, "gzip")
	default:
		return data, nil
	}
}

func readLimited(r io.Reader, kind string) ([]byte, error) {
	out, err := io.ReadAll(security.NewLimitedReader(r, MaxDecompressedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s image: %w", kind, err)
	}
	return out, nil
}
