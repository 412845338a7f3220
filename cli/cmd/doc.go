// Package cmd implements the qsplit subcommands.
//
// Commands that read search strings accept them as arguments (joined with
// spaces into one string), from files given with --file (one per line), or
// from standard input one per line.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the YAML configuration file written by init.
	ConfigIdentifier = "config"
)
