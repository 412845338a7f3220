//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// version holds the contents of the VERSION file embedded at build time.
//
//go:embed VERSION
var version string

// Version is the semantic version of the qsplit module.
// It is printed by the CLI with the --version flag.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier used across the
	// project. It appears in help text and default config paths.
	Name = "qsplit"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Search notation splitter"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
