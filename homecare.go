package homecare

import (
	_ "embed"
)

// Version is the release of the homecare module, read from the VERSION file.
//
//go:embed VERSION
var Version string
