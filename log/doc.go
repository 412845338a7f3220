// Package log provides a simplified structured logging interface based on
// [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options
// applied at creation time. Loggers are immutable values: [Logger.Wrap] and
// [Logger.With] return new loggers, so one can be shared freely between
// goroutines.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
//	logger.Info("query parsed", slog.Int("nodes", 3))
//
// The zero Logger discards everything. Components that accept an optional
// logger can store one without nil checks.
//
// # Levels
//
// In addition to the [slog] levels, [LevelTrace] sits below [LevelDebug] and
// is used for per-rule parser tracing.
//
// # Output Formats
//
// [FormatJSON] (default) and [FormatText] are supported. With [WithPretty]
// enabled (default), output is colorized for a terminal.
//
// # Package-Level Logging
//
// Functions such as [Info] and [ErrorContext] log through a process-wide
// default logger that writes to stderr. [Config] reconfigures it.
package log
