package cmd

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	"github.com/ardnew/typeline/log"
	"github.com/ardnew/typeline/pkg"
	"github.com/ardnew/typeline/profile"
)

// Init generates a configuration file holding the current global flag values
// and the default flags of each command.
type Init struct {
	Force  bool `help:"Overwrite existing configuration file" short:"f"`
	Stdout bool `help:"Print the configuration instead of writing it"`
}

// ignoredFlags are flag name prefixes never written to the configuration.
var ignoredFlags = []string{"help", "version", profile.Tag}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	var buf bytes.Buffer

	if err := toml.NewEncoder(&buf).Encode(i.build(ktx)); err != nil {
		return ErrEncodeConfig.Wrap(err)
	}

	if i.Stdout {
		_, err := buf.WriteTo(streamsFrom(ctx).Out)
		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), pkg.DirMode); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, buf.Bytes(), 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// build returns the configuration document: global flags with their current
// values at the top level, and one table per command holding the defaults of
// its flags.
func (i *Init) build(ktx *kong.Context) map[string]any {
	config := make(map[string]any)

	for _, flag := range ktx.Model.Flags {
		if skipFlag(flag) {
			continue
		}

		if v, ok := configValue(ktx.FlagValue(flag)); ok {
			config[flag.Name] = v
		}
	}

	for _, node := range ktx.Model.Children {
		if node.Type != kong.CommandNode || node.Hidden {
			continue
		}

		table := make(map[string]any)

		for _, flag := range node.Flags {
			if skipFlag(flag) || flag.Default == "" {
				continue
			}

			if v, ok := defaultValue(flag); ok {
				table[flag.Name] = v
			}
		}

		if len(table) > 0 {
			config[node.Name] = table
		}
	}

	return config
}

func skipFlag(flag *kong.Flag) bool {
	return flag.Hidden || slices.ContainsFunc(ignoredFlags, func(s string) bool {
		return strings.HasPrefix(flag.Name, s)
	})
}

// defaultValue parses the default of flag into the type of its target.
func defaultValue(flag *kong.Flag) (any, bool) {
	switch flag.Target.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(flag.Default)

		return b, err == nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(flag.Default, 10, 64)

		return n, err == nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(flag.Default, 64)

		return f, err == nil

	default:
		return flag.Default, true
	}
}

// configValue converts a flag value to a type the TOML encoder writes as a
// scalar or array. Empty strings and slices are omitted.
func configValue(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true //nolint:gosec // flag values are small

	case reflect.Float32, reflect.Float64:
		return rv.Float(), true

	case reflect.String:
		return rv.String(), rv.Len() > 0

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}

		out := make([]any, 0, rv.Len())

		for j := range rv.Len() {
			if e, ok := configValue(rv.Index(j).Interface()); ok {
				out = append(out, e)
			}
		}

		return out, len(out) > 0

	default:
		return nil, false
	}
}
