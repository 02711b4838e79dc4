package lang

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/typeline/lang/token"
)

// Resolve returns the value bound to name in s, or [ErrUnboundName] located
// at pos.
func (s *Scope) Resolve(name string, pos token.Position) (*Value, error) {
	b, ok := s.Lookup(name)
	if !ok {
		return nil, ErrUnboundName.WithPosition(pos).
			With(slog.String("name", name))
	}

	return b.Value, nil
}

// enter binds the arguments of call to the parameters of c in a new block
// frame of the captured scope.
func (c *Closure) enter(call *Call) (*Scope, error) {
	if len(call.Named) > 0 {
		return nil, ErrArgCount.WithPosition(call.Pos).With(
			slog.String("name", c.Name),
			slog.Any("unexpected", slices.Sorted(maps.Keys(call.Named))),
		)
	}

	if len(call.Args) != len(c.Params) {
		return nil, ErrArgCount.WithPosition(call.Pos).With(
			slog.String("name", c.Name),
			slog.Int("want", len(c.Params)),
			slog.Int("got", len(call.Args)),
		)
	}

	scope := c.Captured.Enter()

	for i, p := range c.Params {
		scope = scope.Define(p, call.Args[i], call.Pos)
	}

	return scope, nil
}

// Expect returns [ErrArgCount] unless call has between min and max positional
// arguments and only the named arguments listed in named.
func (call *Call) Expect(minArgs, maxArgs int, named ...string) error {
	if n := len(call.Args); n < minArgs || n > maxArgs {
		return ErrArgCount.WithPosition(call.Pos).With(
			slog.String("name", call.Name),
			slog.Int("min", minArgs),
			slog.Int("max", maxArgs),
			slog.Int("got", n),
		)
	}

	for key := range call.Named {
		if !slices.Contains(named, key) {
			return ErrArgCount.WithPosition(call.Pos).With(
				slog.String("name", call.Name),
				slog.String("unexpected", key),
			)
		}
	}

	return nil
}

// Arg returns the i'th positional argument, or nil.
func (call *Call) Arg(i int) *Value {
	if i < 0 || i >= len(call.Args) {
		return nil
	}

	return call.Args[i]
}

// Number returns the named argument key as a float64. The second result
// is false if the argument is absent.
func (call *Call) Number(key string) (float64, bool, error) {
	v, ok := call.Named[key]
	if !ok {
		return 0, false, nil
	}

	if v.Kind == DataValue {
		switch n := v.Data.(type) {
		case int:
			return float64(n), true, nil

		case int64:
			return float64(n), true, nil

		case float64:
			return n, true, nil
		}
	}

	return 0, false, ErrArgType.WithPosition(call.Pos).With(
		slog.String("name", call.Name),
		slog.String("argument", key),
		slog.String("want", "number"),
		slog.String("got", v.Kind.String()),
	)
}
