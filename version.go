package porkpie

import (
	_ "embed"
)

// Version is the library version, read from the VERSION file at build time.
//
//go:embed VERSION
var Version string
