// Swatch - dominant colour and palette extraction
//
// Swatch downsamples an image, counts quantised colours and reports the
// dominant colour together with a small set of visually distinct colours.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/swatch/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
