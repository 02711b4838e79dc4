package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/lang/lexer"
)

// Tokens prints the markup tokens of a source file, one per line, as
// position, kind, and quoted text separated by tabs.
type Tokens struct {
	Normalize bool   `help:"Normalize input to Unicode NFC before tokenizing" default:"true" negatable:""`
	File      string `help:"Source file, or '-' for stdin"                    default:"-"    arg:""      optional:""`
}

// Run executes the tokens command.
func (t *Tokens) Run(ctx context.Context) error {
	srcs, err := readSources(ctx, []string{t.File})
	if err != nil {
		return err
	}

	src := srcs[0].Text
	if t.Normalize {
		src = lang.Normalize(src)
	}

	w := bufio.NewWriter(streamsFrom(ctx).Out)

	for _, tok := range lexer.Tokenize(src) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", tok.Pos, tok.Kind, strconv.Quote(tok.Text))
	}

	if err := w.Flush(); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
