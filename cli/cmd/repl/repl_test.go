package repl

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/qsplit/query"
)

func testModel(t *testing.T) model {
	t.Helper()

	cache, err := query.NewCache(16)
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		Cache:           cache,
		DefaultOperator: "eq",
		CacheDir:        t.TempDir(),
	}

	return newModel(context.Background(), cfg,
		NewHistory(filepath.Join(cfg.CacheDir, baseHistory), 0))
}

func send(m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}

	return m
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ParseAndComplete(t *testing.T) {
	m := send(testModel(t), typed("from:bob"))

	if m.live == nil || !m.live.Complete() {
		t.Fatalf("live parse = %+v", m.live)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.input.Value() != "" || m.history.Len() != 1 {
		t.Fatalf("after enter: input %q, history %d", m.input.Value(), m.history.Len())
	}

	if len(m.vocab.keys) != 1 || m.vocab.keys[0] != "from" {
		t.Fatalf("vocabulary keys = %v", m.vocab.keys)
	}

	m = send(m, typed("fr"), tea.KeyMsg{Type: tea.KeyTab})

	if got := m.input.Value(); got != "from" {
		t.Errorf("completed input = %q, want %q", got, "from")
	}
}

func TestModel_View(t *testing.T) {
	m := testModel(t)

	if v := m.View(); !strings.Contains(v, "Type a search string") {
		t.Errorf("empty view = %q", v)
	}

	m = send(m, typed("size:gt:10 subject"))

	if v := m.View(); !strings.Contains(v, "expected ':'") {
		t.Errorf("status line missing diagnostic: %q", v)
	}
}

func TestModel_Commands(t *testing.T) {
	m := send(testModel(t), typed("a:b"), tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("mode %v input %q after Esc", m.mode, m.input.Value())
	}

	m = send(m, typed("format json"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.format != "json" {
		t.Errorf("format = %q, want json", m.format)
	}

	m = send(m, typed("format xml"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.format != "json" {
		t.Errorf("format changed to %q by invalid argument", m.format)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != modeEval || m.input.Value() != "a:b" {
		t.Errorf("mode %v input %q after returning", m.mode, m.input.Value())
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc}, typed("quit"), tea.KeyMsg{Type: tea.KeyEnter})

	if !m.quitting {
		t.Error("expected quit")
	}
}

func TestModel_History(t *testing.T) {
	m := send(testModel(t),
		typed("a:1"), tea.KeyMsg{Type: tea.KeyEnter},
		typed("a:2"), tea.KeyMsg{Type: tea.KeyEnter},
		tea.KeyMsg{Type: tea.KeyUp})

	if m.input.Value() != "a:2" {
		t.Errorf("up = %q, want a:2", m.input.Value())
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "a:1" {
		t.Errorf("up twice = %q, want a:1", m.input.Value())
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "" {
		t.Errorf("down past end = %q, want empty", m.input.Value())
	}
}

func TestRenderResult(t *testing.T) {
	ctx := context.Background()
	res := query.Parse(ctx, "a:b junk")

	for _, format := range formats {
		out, err := renderResult(ctx, res, format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}

		if !strings.Contains(out, `unparsed: "junk"`) {
			t.Errorf("%s: missing unparsed tail in %q", format, out)
		}
	}
}
