package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/typeline/lang"
)

// editDoneMsg is sent when the editor exits without error.
type editDoneMsg struct{ changed bool }

// editDeclinedMsg is sent when the user declined to edit again after a
// compile error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the editor could not be run.
type editErrorMsg struct{ err error }

const prompt = "➜ "

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// Run reads input lines until the input ends or the user quits. When
// interactive is set it runs a line editor with completion and history on
// the terminal; otherwise every line of in is handled in turn and results
// are written to out.
func Run(
	ctx context.Context,
	s *Session,
	h *History,
	in io.Reader,
	out io.Writer,
	interactive bool,
) error {
	s.logger.TraceContext(ctx, "repl start",
		slog.Bool("interactive", interactive),
		slog.Int("history", h.Len()),
	)

	if !interactive {
		return runLines(ctx, s, in, out)
	}

	p := tea.NewProgram(newModel(ctx, s, h),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}

const defaultWidth = 80

// model is the Bubble Tea model of the interactive line editor.
type model struct {
	ctx          context.Context //nolint:containedctx // tea.Model methods take no context
	session      *Session
	history      *History
	input        textinput.Model
	matches      fuzzy.Matches
	historyIdx   int
	wordStart    int
	wordEnd      int
	suggIdx      int
	preTabCursor int
	width        int
	preTabText   string
	tabActive    bool
	quitting     bool
}

func newModel(ctx context.Context, s *Session, h *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctx:        ctx,
		session:    s,
		history:    h,
		input:      ti,
		historyIdx: h.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-lipgloss.Width(prompt)-2, 1)

		return m, nil

	case editDoneMsg:
		if !msg.changed {
			return m, tea.Println(hintStyle.Render("edit cancelled"))
		}

		m.session.logger.TraceContext(m.ctx, "repl edit complete",
			slog.Int("names", len(m.session.Names())),
		)

		return m, tea.Println(resultStyle.Render("session reloaded"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteByte('\n')

	input := m.input.Value()
	call := detectCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))
		b.WriteString(hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len())))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Type markup, or :help for commands"))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width, m.session.callable,
		))

	case call.inCall:
		if params, ok := m.session.signature(call.name); ok {
			b.WriteString(renderSignatureHint(call.name, params, call.argIndex))
		}
	}

	b.WriteByte('\n')

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refresh(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyCtrlL:
		return m, tea.ClearScreen

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			m.tabActive = false
			m.refresh(true)

			return m, nil
		}

		return m.execute()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(m.historyIdx - 1), nil

	case tea.KeyDown:
		return m.recall(m.historyIdx + 1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refresh(false)
		}

		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.refresh(true)

		return m, cmd
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh(false)

	return m, cmd
}

// cycle moves the tab selection by step, starting a cycle if none is
// active. A single candidate is accepted immediately.
func (m model) cycle(step int) model {
	n := len(m.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		m.replaceWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m

	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceWord replaces the current word with s and moves the cursor after it.
func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + s + input[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(s))
	m.wordEnd = m.wordStart + len(s)
}

// refresh recomputes the completions. With autoConfirm, a word that already
// equals its sole candidate is accepted so the bar disappears.
func (m *model) refresh(autoConfirm bool) {
	if m.tabActive {
		return
	}

	m.matches, m.wordStart, m.wordEnd = m.session.complete(m.input.Value(), m.input.Position())
	m.suggIdx = -1

	if autoConfirm && len(m.matches) == 1 &&
		m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.matches = nil
	}
}

// recall shows history line i. An index past the newest line clears the
// input.
func (m model) recall(i int) model {
	switch {
	case i < 0:
		return m

	case i >= m.history.Len():
		m.historyIdx = m.history.Len()
		m.input.SetValue("")

	default:
		line, err := m.history.Get(i)
		if err != nil {
			return m
		}

		m.historyIdx = i
		m.input.SetValue(line)
		m.input.SetCursor(len(line))
	}

	m.tabActive = false
	m.refresh(false)

	return m
}

// execute handles the submitted line.
func (m model) execute() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(line); err != nil {
		m.session.logger.WarnContext(m.ctx, "history write failed",
			slog.Any("error", err),
		)
	}

	m.historyIdx = m.history.Len()

	echo := tea.Println(promptStyle.Render(prompt) + inputStyle.Render(line))
	res := m.session.Handle(m.ctx, line)

	switch {
	case res.err != nil:
		return m, tea.Sequence(echo,
			tea.Println(errorStyle.Render(formatError(res.err, line))))

	case res.action == actionQuit:
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case res.action == actionClear:
		return m, tea.ClearScreen

	case res.action == actionEdit:
		return m, tea.Sequence(echo, m.edit())

	case res.output == "":
		return m, echo

	default:
		return m, tea.Sequence(echo, tea.Println(resultStyle.Render(res.output)))
	}
}

// edit runs the editor on the session source.
func (m model) edit() tea.Cmd {
	cmd := &editCommand{ctx: m.ctx, session: m.session, logger: m.session.logger}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}

		case err != nil:
			return editErrorMsg{err: err}

		default:
			return editDoneMsg{changed: cmd.changed}
		}
	})
}

// formatError renders err against the line that produced it.
func formatError(err error, line string) string {
	return "error: " + strings.TrimRight(lang.FormatError(err, line), "\n")
}
