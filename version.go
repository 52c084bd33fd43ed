package tendril

import _ "embed"

// Version is the release of the tendril module.
//
//go:embed VERSION
var Version string
