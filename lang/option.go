package lang

import (
	"runtime"

	"github.com/ardnew/typeline/log"
)

// DefaultMaxDepth is the default limit on nested blocks and calls.
// Users may modify this before compiling to change the default.
var DefaultMaxDepth = 64

// options holds compilation settings.
type options struct {
	logger    log.Logger
	library   *Library
	scope     *Scope
	maxDepth  int
	jobs      int
	normalize bool
}

// Option configures compilation.
type Option func(*options)

// WithMaxDepth sets the maximum nesting depth of content blocks and function
// calls.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithNormalize controls whether source text is converted to Unicode NFC
// before it is tokenized. It is enabled by default.
func WithNormalize(enable bool) Option {
	return func(o *options) {
		o.normalize = enable
	}
}

// WithLibrary sets the primitives registered in the root scope.
func WithLibrary(lib *Library) Option {
	return func(o *options) {
		o.library = lib
	}
}

// WithScope compiles in the given scope instead of a fresh root scope built
// from the library. It lets a host continue from the final scope of an
// earlier [Document].
func WithScope(scope *Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// WithJobs sets the number of documents [CompileAll] compiles concurrently.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithJobs(n int) Option {
	return func(o *options) {
		o.jobs = n
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func makeOptions(opts ...Option) options {
	o := options{
		library:   defaultLibrary,
		maxDepth:  DefaultMaxDepth,
		normalize: true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.library == nil {
		o.library = defaultLibrary
	}

	if o.jobs < 1 {
		o.jobs = runtime.GOMAXPROCS(0)
	}

	return o
}

// cacheable reports whether documents compiled with o may be shared.
func (o options) cacheable() bool {
	return o.library == defaultLibrary && o.scope == nil
}
