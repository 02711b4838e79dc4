// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"),
//		log.WithCaller(true))
//
// The zero Logger discards all records. Library code accepts a Logger
// through an option and logs unconditionally; callers that never configure
// one pay only for the nil check.
//
// # Levels
//
// Besides the four slog levels there is [LevelTrace], below debug, used for
// per-token and per-call events of the compiler. Level names are printed in
// upper case in every format.
//
// # Formats
//
// [FormatJSON] (default) and [FormatText] map to the slog handlers of the
// same name. With [WithPretty] enabled, records are colorized instead:
// text stays on one line with unquoted values, JSON is indented one field per
// line. Values implementing [slog.LogValuer] are resolved and groups are
// flattened to dotted keys.
//
// # Package-level logger
//
// Functions such as [Info] and [ErrorContext] write to a package-level
// logger that [Config] reconfigures. Context-unaware functions use
// [DefaultContextProvider].
package log
