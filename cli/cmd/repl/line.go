package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// runLines handles each line of in without a terminal. Errors are reported
// on out and do not stop the loop.
func runLines(ctx context.Context, s *Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		res := s.Handle(ctx, line)

		switch {
		case res.err != nil:
			fmt.Fprintln(out, formatError(res.err, line))

		case res.action == actionQuit:
			return nil

		case res.output != "":
			fmt.Fprintln(out, res.output)
		}
	}

	return scanner.Err()
}
