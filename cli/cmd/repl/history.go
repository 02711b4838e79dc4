package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

// HistoryFile is the name of the history file in the cache directory.
const HistoryFile = "history"

// DefaultHistorySize is the number of lines a [History] keeps.
const DefaultHistorySize = 1000

// History is a list of input lines persisted to a file, oldest first.
// A line entered again moves to the end rather than being repeated.
type History struct {
	mu    sync.RWMutex
	path  string
	lines []string
	size  int
}

// NewHistory returns an empty history stored at path. An empty path keeps
// the history in memory only.
func NewHistory(path string, size int) *History {
	if size < 1 {
		size = DefaultHistorySize
	}

	return &History{path: path, size: size}
}

// Load replaces the in-memory lines with the contents of the history file.
// A missing file is not an error.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer file.Close()

	h.lines = h.lines[:0]

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.add(line)
		}
	}

	return scanner.Err()
}

// Add appends line and persists the history. Blank lines are ignored.
func (h *History) Add(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		return nil
	}

	if !h.add(line) {
		return h.append(line)
	}

	return h.rewrite()
}

// add appends line, dropping an earlier copy and the oldest lines beyond
// the size limit. It reports whether earlier lines were removed.
func (h *History) add(line string) bool {
	removed := false

	if i := slices.Index(h.lines, line); i >= 0 {
		h.lines = slices.Delete(h.lines, i, i+1)
		removed = true
	}

	h.lines = append(h.lines, line)

	if over := len(h.lines) - h.size; over > 0 {
		h.lines = slices.Delete(h.lines, 0, over)
		removed = true
	}

	return removed
}

// Get returns the line at index i, where 0 is the oldest.
func (h *History) Get(i int) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.lines) {
		return "", ErrOutOfBounds
	}

	return h.lines[i], nil
}

// Len returns the number of lines.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.lines)
}

// Lines returns a copy of all lines, oldest first.
func (h *History) Lines() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.lines)
}

// append writes one line to the end of the file. Must be called with h.mu
// held.
func (h *History) append(line string) error {
	if h.path == "" {
		return nil
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(line + "\n")

	return err
}

// rewrite replaces the file with the current lines. Must be called with
// h.mu held.
func (h *History) rewrite() error {
	if h.path == "" {
		return nil
	}

	file, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range h.lines {
		_, _ = w.WriteString(line)
		_ = w.WriteByte('\n')
	}

	return w.Flush()
}
