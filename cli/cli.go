package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/typeline/cli/cmd"
	"github.com/ardnew/typeline/cli/cmd/repl"
	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/pkg"
	"github.com/ardnew/typeline/render"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config"

// CLI is the top-level command-line interface for typeline.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Compile cmd.Compile `cmd:"" default:"withargs" help:"Compile markup (default command)"`
	Tokens  cmd.Tokens  `cmd:""                    help:"Print the markup tokens of a source"`
	Scope   cmd.Scope   `cmd:""                    help:"List the bindings visible at the end of a source"`
	Repl    cmd.Repl    `cmd:""                    help:"Compile markup interactively"`
	Init    cmd.Init    `cmd:""                    help:"Write a configuration file"`
}

// Run executes the typeline CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configFile := pkg.ConfigPath(baseConfig + ".toml")

	vars := kong.Vars{
		cmd.ConfigIdentifier:   configFile,
		cmd.CacheIdentifier:    pkg.CacheDir(),
		cmd.HistoryIdentifier:  pkg.CachePath(repl.HistoryFile),
		cmd.FormatsIdentifier:  strings.Join(render.Formats(), ","),
		cmd.MaxDepthIdentifier: strconv.Itoa(lang.DefaultMaxDepth),
		"version":              pkg.Name + " " + pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Configure the logger before kong reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, pkg.ConfigPath(baseConfig+".json")),
		kong.Configuration(loadTOML, configFile),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
