package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	"github.com/ardnew/typeline/pkg"
)

// loadTOML is a [kong.ConfigurationLoader] for configuration files written
// in TOML.
//
// Global flags are top-level keys. Flags of a command are keys of the table
// named after the command, and fall back to the top level. A hyphenated flag
// name may also be written with underscores, or as a key of a table named
// after its first segment:
//
//	log-level = "debug"
//
//	[log]
//	pretty = false
//
//	[compile]
//	format = "tree"
//	max_depth = 32
//
// Command-line flags override configuration values.
func loadTOML(r io.Reader) (kong.Resolver, error) {
	cfg := make(config)

	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, pkg.ErrReadConfig.Wrap(err)
	}

	return cfg, nil
}

// config implements [kong.Resolver] over a decoded configuration document.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	parent *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if parent != nil && parent.Command != nil {
		if table, ok := c[parent.Command.Name].(map[string]any); ok {
			if v, ok := config(table).lookup(flag.Name); ok {
				return v, nil
			}
		}
	}

	if v, ok := c.lookup(flag.Name); ok {
		return v, nil
	}

	return nil, nil //nolint:nilnil // no value means use the default
}

// lookup finds name as written, with underscores for hyphens, or nested
// under a table named by its first hyphenated segment.
func (c config) lookup(name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if v, ok := c[key]; ok {
			if _, isTable := v.(map[string]any); !isTable {
				return flagValue(v), true
			}
		}
	}

	head, tail, ok := strings.Cut(name, "-")
	if !ok {
		return nil, false
	}

	table, ok := c[head].(map[string]any)
	if !ok {
		return nil, false
	}

	return config(table).lookup(tail)
}

// flagValue converts a decoded value to a form kong's mappers accept.
// Numbers become strings.
func flagValue(v any) any {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out

	default:
		return v
	}
}
