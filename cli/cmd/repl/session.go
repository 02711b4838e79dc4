package repl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/log"
	"github.com/ardnew/typeline/render"
)

// commandPrefix introduces a session command such as ":scope".
const commandPrefix = ":"

// commands are the session commands in the order they are listed by help.
var commands = []string{"help", "scope", "format", "source", "reset", "edit", "clear", "quit"}

// Session compiles input lines one at a time against an accumulating scope,
// so a binding made by one line is visible to every later line.
type Session struct {
	lib      *lang.Library
	logger   log.Logger
	scope    *lang.Scope
	renderer render.Renderer
	format   string
	opts     []lang.Option
	lines    []string
}

// NewSession returns a session whose root scope holds the primitives of lib,
// rendering each result in the named format.
func NewSession(lib *lang.Library, format string, logger log.Logger, opts ...lang.Option) (*Session, error) {
	r, err := render.Lookup(format)
	if err != nil {
		return nil, err
	}

	s := &Session{
		lib:      lib,
		logger:   logger,
		renderer: r,
		format:   format,
		opts:     slices.Concat([]lang.Option{lang.WithLogger(logger)}, opts),
	}
	s.Reset()

	return s, nil
}

// Reset discards every binding and line made during the session.
func (s *Session) Reset() {
	s.scope = s.lib.Scope()
	s.lines = nil
}

// Names returns the names visible to the next line.
func (s *Session) Names() []string { return s.scope.Names() }

// Lookup returns the binding visible to the next line under name.
func (s *Session) Lookup(name string) (*lang.Binding, bool) {
	return s.scope.Lookup(name)
}

// Source returns the accepted lines as one document.
func (s *Session) Source() string { return strings.Join(s.lines, "\n\n") }

// Eval compiles line in the session scope and returns the rendered result.
// On failure the session is unchanged.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	doc, err := lang.Compile(ctx, line, append(s.opts, lang.WithScope(s.scope))...)
	if err != nil {
		return "", err
	}

	s.scope = doc.Scope
	s.lines = append(s.lines, line)

	s.logger.TraceContext(ctx, "repl eval",
		slog.Int("nodes", len(doc.Nodes)),
		slog.Int("lines", len(s.lines)),
	)

	var buf bytes.Buffer

	if err := s.renderer.Render(ctx, &buf, doc); err != nil {
		return "", err
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// Load replaces the session with the result of compiling src from an empty
// session scope. On failure the session is unchanged.
func (s *Session) Load(ctx context.Context, src string) error {
	doc, err := lang.Compile(ctx, src, append(s.opts, lang.WithScope(s.lib.Scope()))...)
	if err != nil {
		return err
	}

	s.scope = doc.Scope
	s.lines = nil

	if strings.TrimSpace(src) != "" {
		s.lines = []string{strings.TrimSpace(src)}
	}

	return nil
}

// action is what the front end must do after a command.
type action int

const (
	actionNone action = iota
	actionQuit
	actionClear
	actionEdit
)

// result is the outcome of one input line.
type result struct {
	output string
	err    error
	action action
}

// Handle evaluates one input line, which is either markup or a command
// introduced by commandPrefix.
func (s *Session) Handle(ctx context.Context, line string) result {
	name, ok := strings.CutPrefix(strings.TrimSpace(line), commandPrefix)
	if !ok {
		out, err := s.Eval(ctx, line)

		return result{output: out, err: err}
	}

	name, arg, _ := strings.Cut(strings.TrimSpace(name), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "h", "help":
		return result{output: helpMessage()}

	case "s", "scope":
		return result{output: s.describeScope()}

	case "f", "format":
		if arg == "" {
			return result{output: s.format}
		}

		r, err := render.Lookup(arg)
		if err != nil {
			return result{err: err}
		}

		s.renderer, s.format = r, arg

		return result{output: "format " + arg}

	case "source":
		return result{output: s.Source()}

	case "r", "reset":
		s.Reset()

		return result{output: "scope reset"}

	case "e", "edit":
		return result{action: actionEdit}

	case "c", "clear":
		return result{action: actionClear}

	case "q", "quit", "exit":
		return result{action: actionQuit}

	default:
		return result{err: fmt.Errorf("%w: %s%s", ErrUnknownCommand, commandPrefix, name)}
	}
}

// describeScope lists the visible bindings, one per line.
func (s *Session) describeScope() string {
	var b strings.Builder

	for _, name := range s.Names() {
		bind, _ := s.scope.Lookup(name)
		fmt.Fprintf(&b, "%-12s %s\n", name, bind.Value.Summary())
	}

	return strings.TrimRight(b.String(), "\n")
}

func helpMessage() string {
	return `Each line is compiled as markup; #let bindings persist between lines.

Commands:
  :help            print this message
  :scope           list visible bindings
  :format [NAME]   show or set the output format (` + strings.Join(render.Formats(), ", ") + `)
  :source          print the accepted lines
  :reset           discard all bindings
  :edit            edit the accepted lines in $EDITOR
  :clear           clear the screen
  :quit            exit

Keys:
  Tab/Shift-Tab    cycle completions
  Up/Down          history
  Ctrl-C           clear the line, or exit on an empty line
  Ctrl-D           exit on an empty line`
}
