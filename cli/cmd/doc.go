// Package cmd implements the typeline subcommands: compile, tokens, scope,
// init, and repl.
//
// Commands read their standard streams from the context (see [WithStreams])
// and the parsed command line from [WithContext].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"

	// HistoryIdentifier is the kong variable identifier containing the path
	// to the REPL history file.
	HistoryIdentifier = "history"

	// FormatsIdentifier is the kong variable identifier containing the
	// comma-separated output format names.
	FormatsIdentifier = "formats"

	// MaxDepthIdentifier is the kong variable identifier containing the
	// default nesting limit.
	MaxDepthIdentifier = "maxDepth"
)
