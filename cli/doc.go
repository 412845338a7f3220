// Package cli contains the command line interface for qsplit.
//
// # Usage
//
// With no command, qsplit parses its arguments as one search string:
//
//	qsplit 'from:bob or (label:inbox and not is:read)'
//
// Commands:
//
//   - parse: split search strings and report the tree and unparsed tail
//   - fmt: write only the parsed tree (native, json, yaml, tree, cbor, msgpack)
//   - check: validate a serialized tree against the condition schema
//   - diag: render a diagnostic for a position in a search string
//   - repl: parse search strings interactively
//   - init: write the current flag values to the configuration file
//
// # Configuration
//
// Flag defaults are read from config.yaml (or config.json) in the user
// configuration directory. YAML keys name flags, and nested maps are joined
// with hyphens:
//
//	log:
//	  level: debug
//	default-operator: has
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o qsplit .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/qsplit/pprof)
package cli
