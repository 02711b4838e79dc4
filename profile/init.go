package profile

// Config returns the profiler settings. Configs are built by applying the
// With functions to a zero Config:
//
//	var cfg profile.Config = func() (string, string, bool) { return "", "", false }
//	cfg = profile.WithMode("cpu")(cfg)
type Config func() (mode, path string, quiet bool)

// Start starts the profiler and returns a handle for stopping it.
//
// Without the pprof build tag, or with an empty or unknown mode, Start
// returns a handle whose Stop does nothing. Stop is always safe to call.
func (c Config) Start() interface{ Stop() } {
	if c == nil {
		return ignore{}
	}

	mode, path, quiet := c()
	if mode == "" {
		return ignore{}
	}

	return start(mode, path, quiet)
}

// WithMode returns a functional option for setting a profiler's mode.
func WithMode(mode string) func(Config) Config {
	return func(c Config) Config {
		_, path, quiet := c.get()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithPath returns a functional option for setting a profiler's output
// directory.
func WithPath(path string) func(Config) Config {
	return func(c Config) Config {
		mode, _, quiet := c.get()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithQuiet returns a functional option for silencing the profiler's own
// log output.
func WithQuiet(quiet bool) func(Config) Config {
	return func(c Config) Config {
		mode, path, _ := c.get()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

func (c Config) get() (string, string, bool) {
	if c == nil {
		return "", "", false
	}

	return c()
}

type ignore struct{}

func (ignore) Stop() {}
