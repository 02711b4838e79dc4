package cmd

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/ardnew/typeline/cli/cmd/repl"
	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/log"
)

// Repl compiles markup interactively, one line at a time, keeping the
// bindings of every accepted line.
type Repl struct {
	Format    string `help:"Result format (${formats})"                         default:"tree"        enum:"${formats}" short:"F"`
	History   string `help:"History file (empty to disable)"                    default:"${history}"                                type:"path"`
	Load      string `help:"Compile this file first and continue from its scope"                                         short:"l" type:"existingfile"`
	MaxDepth  int    `help:"Maximum nesting depth of content blocks and calls"  default:"${maxDepth}"`
	Normalize bool   `help:"Normalize input to Unicode NFC before tokenizing"    default:"true"                                           negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	std := streamsFrom(ctx)
	logger := log.Default()

	s, err := repl.NewSession(lang.NewLibrary(), r.Format, logger,
		lang.WithMaxDepth(r.MaxDepth),
		lang.WithNormalize(r.Normalize),
	)
	if err != nil {
		return err
	}

	if r.Load != "" {
		srcs, err := readSources(ctx, []string{r.Load})
		if err != nil {
			return err
		}

		if err := s.Load(ctx, srcs[0].Text); err != nil {
			return err
		}
	}

	h := repl.NewHistory(r.History, repl.DefaultHistorySize)
	if err := h.Load(); err != nil {
		logger.WarnContext(ctx, "history not loaded",
			slog.String("file", r.History),
			slog.Any("error", err),
		)
	}

	return repl.Run(ctx, s, h, std.In, std.Out, isTerminal(std.In) && isTerminal(std.Out))
}

// isTerminal reports whether v is a terminal device.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)

	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
