// Package repl implements an interactive explorer for search notation.
//
// Each submitted line is parsed and its condition tree, unparsed tail, and
// metadata are printed. While typing, a status line shows which slot of the
// leaf the cursor is in and whether the whole line currently parses, and Tab
// completes keys, operators, and values seen earlier in the session.
package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/query"
)

// editDoneMsg is sent when editing produced a new line.
type editDoneMsg struct {
	line     string
	complete bool
}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editErrorMsg is sent when the editor could not be run.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help           Print this cruft
  keys           List keys, operators, and values seen this session
  format [FMT]   Show or set the result format (tree, native, json, yaml)
  edit           Edit the current query in external $EDITOR
  clear          Clear screen
  quit           Exit REPL

Usage:
  Type a search string and press Enter to parse it
  The status line shows the slot under the cursor and the live parse result
  Completions from this session appear as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between query and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	slotActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")).
			Bold(true)
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// formatCommand formats the echo line of a submitted line.
func formatCommand(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// Config configures a REPL session.
type Config struct {
	// Options are applied to every parse.
	Options []query.Option
	// Cache memoizes parses. It may be nil.
	Cache *query.Cache
	// DefaultOperator is offered as an operator completion.
	DefaultOperator string
	// Format is the initial result format: tree, native, json, or yaml.
	Format string
	// CacheDir holds the history file.
	CacheDir string
	// HistorySize bounds the persisted history.
	HistorySize int
	Logger      log.Logger
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc         func() context.Context
	parse           func(string) *query.Result
	input           textinput.Model
	logger          log.Logger
	history         *History
	vocab           *vocabulary
	live            *query.Result // parse of the current eval input
	defaultOperator string
	format          string
	historyIdx      int
	matches         fuzzy.Matches // current fuzzy match results
	candidates      []string      // backing candidate list
	wordStart       int           // byte offset of current word start
	wordEnd         int           // byte offset of current word end
	suggIdx         int           // selected candidate index
	tabActive       bool          // whether user is tab-cycling
	preTabText      string        // input text before tab-cycling began
	preTabCursor    int           // cursor position before tab-cycling began
	width           int           // terminal width for ellipsization
	quitting        bool
	mode            inputMode
	evalText        string
	evalCursor      int
	ctrlText        string
	ctrlCursor      int
}

// Run starts an interactive session and blocks until the user exits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.String("format", cfg.Format))

	history := NewHistory(filepath.Join(cfg.CacheDir, baseHistory), cfg.HistorySize)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	cfg.Logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()))

	p := tea.NewProgram(newModel(ctx, cfg, history), tea.WithContext(ctx))
	_, err = p.Run()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	format := cfg.Format
	if format == "" {
		format = formats[0]
	}

	return model{
		ctxFunc: func() context.Context { return ctx },
		parse: func(s string) *query.Result {
			return cfg.Cache.Parse(ctx, s, cfg.Options...)
		},
		input:           ti,
		logger:          cfg.Logger,
		history:         history,
		vocab:           new(vocabulary),
		defaultOperator: cfg.DefaultOperator,
		format:          format,
		historyIdx:      history.Len(),
		width:           defaultWidth,
		mode:            modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		if m.mode != modeEval {
			m, _ = m.switchToMode(modeEval)
		}

		m.input.SetValue(msg.line)
		m.input.SetCursor(len(msg.line))
		refreshMatches(&m, false)

		if !msg.complete {
			return m, tea.Println(hintStyle.Render("🗴 — edited query does not parse completely"))
		}

		return m, nil

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit cancelled."))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("🗴 — error: " + msg.err.Error()))
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
	b.WriteString("\n")

	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		if m.mode == modeEval {
			b.WriteString(hintStyle.Render("Type a search string or press Esc for commands"))
		} else {
			b.WriteString(hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	if m.mode == modeEval && strings.TrimSpace(input) != "" {
		b.WriteString(renderSlotHint(slotAt(input, m.input.Position()), m.live))
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyMove(-1, false), nil

	case tea.KeyDown:
		return m.historyMove(1, false), nil

	case tea.KeyShiftUp:
		return m.historyMove(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyMove(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.toggleMode()

	case tea.KeyRunes, tea.KeySpace:
		// Space breaks out of tab-cycling, keeping the candidate.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key (backspace, delete, arrows, etc.) edits without
	// auto-confirming a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping around. A sole candidate
// is completed and confirmed immediately.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + n) % n
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes the live parse and the fuzzy matches for the
// current input. When autoConfirm is true and the typed word already equals
// the sole candidate, the completion is confirmed.
func refreshMatches(m *model, autoConfirm bool) {
	m.live = nil
	if line := m.input.Value(); m.mode == modeEval && strings.TrimSpace(line) != "" {
		m.live = m.parse(line)
	}

	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	if m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	mode := m.mode

	if mode == modeEval {
		m.evalText, m.evalCursor = "", 0
	} else {
		m.ctrlText, m.ctrlCursor = "", 0
	}

	m.input.SetValue("")
	m.tabActive = false

	if err := m.history.Add(input, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	echo := tea.Println(formatCommand(mode, input))

	if mode == modeCtrl {
		m.logger.TraceContext(m.ctxFunc(), "repl command", slog.String("input", input))

		var cmd tea.Cmd

		m, cmd = m.executeCommand(input)
		refreshMatches(&m, false)

		return m, tea.Sequence(echo, cmd)
	}

	res := m.parse(input)
	m.vocab.learn(res.Meta)

	m.logger.TraceContext(m.ctxFunc(), "repl parse",
		slog.String("input", input),
		slog.Int("nodes", len(res.Parsed)),
		slog.Bool("complete", res.Complete()))

	refreshMatches(&m, false)

	out, err := renderResult(m.ctxFunc(), res, m.format)
	if err != nil {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(echo, tea.Println(out))
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd, args := parts[0], parts[1:]

	m.logger.TraceContext(m.ctxFunc(), "repl exec command",
		slog.String("command", cmd),
		slog.Any("args", args))

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Quit

	case "h", "help":
		return m, tea.Println(helpMessage())

	case "k", "keys":
		return m, tea.Println(m.vocab.String())

	case "f", "format":
		if len(args) == 0 {
			return m, tea.Println(hintStyle.Render("format: " + m.format))
		}

		if !slices.Contains(formats, args[0]) {
			return m, tea.Println(errorStyle.Render(
				"Unknown format: " + args[0] + " (one of " + strings.Join(formats, ", ") + ")"))
		}

		m.format = args[0]

		return m, tea.Println(resultStyle.Render("format: " + m.format))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m.handleEdit()

	default:
		return m, tea.Println(errorStyle.Render("Unknown command: " + cmd + " (try 'help')"))
	}
}

// handleEdit opens the most recent query (or the pending query text) in
// the external editor.
func (m model) handleEdit() (model, tea.Cmd) {
	line := m.evalText
	if line == "" {
		for i := m.history.Len() - 1; i >= 0; i-- {
			if e, err := m.history.Entry(i); err == nil && e.Mode == modeEval {
				line = e.Line

				break
			}
		}
	}

	cmd := &editLineCommand{
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
		parse:   m.parse,
		line:    line,
	}

	return m, tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDoneMsg{line: cmd.edited}

		case err != nil:
			return editErrorMsg{err: err}

		case cmd.edited == "":
			return editCancelledMsg{}

		default:
			return editDoneMsg{line: cmd.edited, complete: true}
		}
	})
}

// historyMove steps through history by step. With sameMode set, entries
// from the other mode are skipped; otherwise the mode follows the entry.
// Moving past the newest entry clears the input.
func (m model) historyMove(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		e, err := m.history.Entry(i)
		if err != nil || (sameMode && e.Mode != m.mode) {
			continue
		}

		if e.Mode != m.mode {
			m, _ = m.switchToMode(e.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(e.Line)
		m.input.SetCursor(len(e.Line))
		refreshMatches(&m, false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// toggleMode switches between query and command modes.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode, saving and restoring each mode's input.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText, m.evalCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
