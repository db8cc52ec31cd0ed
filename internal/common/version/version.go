package version

import (
	_ "embed"
	"strings"
)

// Version information embedded from the VERSION file next to this source file.
// graphtutorial and any future tools in this module share the same number.

//go:embed VERSION
var versionRaw string

// Version is the current version of the tool, trimmed of whitespace.
var Version = strings.TrimSpace(versionRaw)

// Get returns the current version string.
func Get() string {
	return Version
}
