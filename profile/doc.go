// Package profile provides optional runtime profiling for the typeline
// command, built on [github.com/pkg/profile].
//
// Profiling must be enabled at build time with the pprof build tag:
//
//	go build -tags pprof .
//	typeline --pprof-mode=cpu notes.tl
//
// Without the tag, [Modes] is empty and [Config.Start] does nothing.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// Profiles are written to the pprof directory under the cache directory
// unless --pprof-dir is given, and are read with go tool pprof:
//
//	go tool pprof -http=: ~/.cache/typeline/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
