package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/log"
	"github.com/ardnew/typeline/pkg"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It writes the session source to
// a temporary file, opens $EDITOR on it, and reloads the session from the
// result. On a compile error the user may edit again; declining returns
// [ErrEditDeclined].
type editCommand struct {
	ctx     context.Context //nolint:containedctx // tea.ExecCommand.Run takes no context
	session *Session
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	changed bool
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-compile-retry loop.
func (c *editCommand) Run() error {
	f, err := os.CreateTemp("", pkg.Name+"-repl-*.tl")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.session.Source()

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		data, err := runEditor(c.ctx, c.stdin, c.stdout, c.stderr, path)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		err = c.session.Load(c.ctx, string(data))

		c.logger.TraceContext(c.ctx, "editor compile attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", err == nil),
		)

		if err == nil {
			c.changed = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", lang.FormatError(err, string(data)))
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = string(data)
	}
}

// runEditor opens the user's editor on path and returns the edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) ([]byte, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}

	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
