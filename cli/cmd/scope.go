package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/log"
)

// Scope compiles a source file and lists the bindings visible at its end.
type Scope struct {
	All       bool   `help:"Include built-in primitives"                     short:"a"`
	Normalize bool   `help:"Normalize input to Unicode NFC before tokenizing" default:"true" negatable:""`
	File      string `help:"Source file, or '-' for stdin"                    default:"-"    arg:""      optional:""`
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Run executes the scope command.
func (s *Scope) Run(ctx context.Context) error {
	srcs, err := readSources(ctx, []string{s.File})
	if err != nil {
		return err
	}

	doc, err := lang.Compile(ctx, srcs[0].Text,
		lang.WithNormalize(s.Normalize),
		lang.WithLogger(log.Default()),
	)
	if err != nil {
		return err
	}

	rows := s.rows(doc.Scope)

	log.DebugContext(ctx, "scope", slog.Int("bindings", len(rows)))

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderHeader(false).
		Headers("NAME", "DEFINED", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	if _, err := fmt.Fprintln(streamsFrom(ctx).Out, t.Render()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// rows describes the bindings of scope, nearest first. Library primitives
// have no source position and are listed only with --all.
func (s *Scope) rows(scope *lang.Scope) [][]string {
	var rows [][]string

	for b := range scope.All() {
		if !b.Pos.IsValid() && !s.All {
			continue
		}

		rows = append(rows, []string{b.Name, b.Pos.String(), b.Value.Summary()})
	}

	return rows
}
