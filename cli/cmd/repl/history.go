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

const baseHistory = "history.utf8"

// DefaultHistorySize is the number of entries kept when a [History] is
// created with a non-positive limit.
const DefaultHistorySize = 1000

// ErrOutOfBounds is returned for a history index outside the stored entries.
var ErrOutOfBounds = errors.New("history index out of range")

// HistoryEntry is a single submitted line and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// prefix returns the tag written before an entry in the history file.
func (m inputMode) prefix() string {
	if m == modeCtrl {
		return "C:"
	}

	return "E:"
}

func parseEntry(line string) HistoryEntry {
	for _, mode := range []inputMode{modeEval, modeCtrl} {
		if s, ok := strings.CutPrefix(line, mode.prefix()); ok {
			return HistoryEntry{Line: s, Mode: mode}
		}
	}

	return HistoryEntry{Line: line, Mode: modeEval}
}

// History is a bounded, de-duplicated list of submitted lines persisted to a
// file. It is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	path    string
	limit   int
	entries []HistoryEntry
}

// NewHistory creates a History stored at path holding at most limit entries.
func NewHistory(path string, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}

	return &History{path: path, limit: limit}
}

// Load replaces the entries with those stored in the history file.
// A missing file is not an error.
func (h *History) Load() error {
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

	h.entries = h.entries[:0]

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	h.trim()

	return scanner.Err()
}

// Add appends line in mode, moving an identical earlier entry to the end,
// and persists the history. Blank lines are ignored.
func (h *History) Add(line string, mode inputMode) error {
	entry := HistoryEntry{Line: strings.TrimSpace(line), Mode: mode}
	if entry.Line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}

	if i := slices.Index(h.entries, entry); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
		h.entries = append(h.entries, entry)

		return h.rewrite()
	}

	h.entries = append(h.entries, entry)
	if h.trim() {
		return h.rewrite()
	}

	return h.append(entry)
}

// Entry returns the entry at index i, oldest first.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// trim drops the oldest entries beyond the limit and reports whether any
// were dropped. Must be called with h.mu held.
func (h *History) trim() bool {
	over := len(h.entries) - h.limit
	if over <= 0 {
		return false
	}

	h.entries = slices.Delete(h.entries, 0, over)

	return true
}

// append writes one entry to the end of the file. Must be called with h.mu
// held.
func (h *History) append(e HistoryEntry) error {
	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(e.Mode.prefix() + e.Line + "\n")

	return err
}

// rewrite replaces the file with the current entries. Must be called with
// h.mu held.
func (h *History) rewrite() error {
	var b strings.Builder

	for _, e := range h.entries {
		b.WriteString(e.Mode.prefix())
		b.WriteString(e.Line)
		b.WriteByte('\n')
	}

	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}
