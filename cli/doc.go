// Package cli contains the command line interface for typeline.
//
// # Usage
//
// Compiling is the default command, so files may be given directly:
//
//	typeline notes.tl
//	typeline compile --format=tree notes.tl
//	typeline tokens notes.tl
//	typeline scope --all notes.tl
//	typeline repl
//
// # Configuration
//
// Flag defaults are read from config.toml, and then config.json, in the
// user configuration directory. Write a starting file with:
//
//	typeline init
//
// Global flags are top-level keys; flags of a command live in a table
// named after the command. Command-line flags override both files.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp layout (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof
//
// It adds --pprof-mode and --pprof-dir, which defaults to a pprof directory
// in the user cache directory.
package cli
