package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/log"
	"github.com/ardnew/typeline/pkg"
	"github.com/ardnew/typeline/render"
)

// Compile compiles source files and writes each document in the selected
// output format.
type Compile struct {
	Format    string   `help:"Output format (${formats})"                                    default:"text"        enum:"${formats}" short:"F"`
	Output    string   `help:"Write output to file instead of stdout"                                                                  short:"o" type:"path"`
	Indent    int      `help:"Indent width of tree, json, and yaml output (0 for compact)"   default:"2"`
	Jobs      int      `help:"Compile at most N files concurrently (0 for one per CPU)"      default:"0"                                   short:"j"`
	MaxDepth  int      `help:"Maximum nesting depth of content blocks and calls"             default:"${maxDepth}"`
	Normalize bool     `help:"Normalize input to Unicode NFC before tokenizing"              default:"true"                                          negatable:""`
	Files     []string `help:"Source files, or '-' for stdin"                                                                                         arg:"" optional:""`
}

// options returns the compiler options selected by the flags.
func (c *Compile) options() []lang.Option {
	return []lang.Option{
		lang.WithMaxDepth(c.MaxDepth),
		lang.WithNormalize(c.Normalize),
		lang.WithJobs(c.Jobs),
		lang.WithLogger(log.Default()),
	}
}

// Run executes the compile command.
func (c *Compile) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	std := streamsFrom(ctx)

	r, err := render.Lookup(c.Format, render.WithIndent(c.Indent))
	if err != nil {
		return err
	}

	srcs, err := readSources(ctx, c.Files)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "compile",
		slog.Int("sources", len(srcs)),
		slog.String("format", c.Format),
		slog.Int("jobs", c.Jobs),
	)

	docs, err := lang.CompileAll(ctx, srcs, c.options()...)

	var failures pkg.Errors
	if err != nil && !errors.As(err, &failures) {
		return err
	}

	out, closeOut, err := c.output(std.Out)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	next := 0

	for i, doc := range docs {
		if doc == nil {
			c.report(ctx, std.Err, srcs[i], failures, &next)

			continue
		}

		if err := r.Render(ctx, w, doc); err != nil {
			closeOut()

			return err
		}
	}

	if err := w.Flush(); err != nil {
		closeOut()

		return ErrWriteOutput.Wrap(err)
	}

	if err := closeOut(); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	if len(failures) > 0 {
		return pkg.ErrCompile.Wrapf("%d of %d sources failed", len(failures), len(srcs))
	}

	return nil
}

// output returns the destination selected by --output and a function that
// closes it.
func (c *Compile) output(stdout io.Writer) (io.Writer, func() error, error) {
	if c.Output == "" {
		return stdout, func() error { return nil }, nil
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return nil, nil, ErrWriteOutput.With(slog.String("file", c.Output)).Wrap(err)
	}

	return f, f.Close, nil
}

// report writes the next failure with the offending source line. Failures
// are listed in source order, so they pair with the nil documents in turn.
func (c *Compile) report(
	ctx context.Context,
	w io.Writer,
	src lang.Source,
	failures pkg.Errors,
	next *int,
) {
	if *next >= len(failures) {
		return
	}

	err := failures[*next]
	*next++

	text := src.Text
	if c.Normalize {
		text = lang.Normalize(text)
	}

	msg := lang.FormatError(err, text)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	fmt.Fprint(w, msg)

	log.DebugContext(ctx, "source failed",
		slog.String("source", src.Name),
		slog.Any("error", err),
	)
}
