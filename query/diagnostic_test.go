package query

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		pos     int
		radius  []int
		context string
		column  int
	}{
		{"whole input", "from:bob subject", 9, nil, "from:bob subject", 9},
		{"clipped", "0123456789abcdefghij", 10, []int{3}, "789abc", 3},
		{"past end", "abc", 100, nil, "abc", 3},
		{"negative", "abc", -5, nil, "abc", 0},
		{"zero radius", "abcdef", 3, []int{0}, "", 0},
		{"negative radius", "abcdef", 3, []int{-4}, "", 0},
		{"empty input", "", 0, nil, "", 0},
		{"multibyte column", "héllo wörld", 7, nil, "héllo wörld", 6},
		{"mid rune", "héllo", 2, []int{1}, "hé", 1},
		{"control chars", "a\tb\nc", 4, nil, "a b c", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FormatError(tt.input, tt.pos, "boom", tt.radius...)

			if d.Context != tt.context || d.Column != tt.column {
				t.Errorf("context %q column %d, want %q column %d",
					d.Context, d.Column, tt.context, tt.column)
			}

			if d.Position != tt.pos {
				t.Errorf("Position = %d, want %d", d.Position, tt.pos)
			}
		})
	}
}

func TestDiagnostic_Lines(t *testing.T) {
	d := FormatError("from:bob subject", 9, "expected ':'")

	want := "expected ':'\n" +
		"Position: 9\n" +
		"Context: \"from:bob subject\"\n" +
		strings.Repeat(" ", 19) + "^"

	if diff := cmp.Diff(want, d.Error()); diff != "" {
		t.Errorf("diagnostic mismatch (-want +got):\n%s", diff)
	}

	lines := d.Lines()
	if caret := strings.Index(lines[3], "^"); lines[2][caret] != 's' {
		t.Errorf("caret under %q, want 's'", lines[2][caret])
	}
}

func TestResult_Diagnose(t *testing.T) {
	res := Parse(context.Background(), "  from:bob subject ")

	d := res.Diagnose()
	if d == nil {
		t.Fatal("expected a diagnostic")
	}

	if d.Message != ErrExpectedColon.Message() || d.Position != len("from:bob subject") {
		t.Errorf("unexpected diagnostic: %+v", d)
	}

	if Parse(context.Background(), "a:b").Diagnose() != nil {
		t.Error("expected no diagnostic for a complete parse")
	}
}

func TestError_Sentinels(t *testing.T) {
	err := ErrExpectedColon.WithPosition(3).With()

	if !errors.Is(err, ErrExpectedColon) || errors.Is(err, ErrExpectedClosingParen) {
		t.Errorf("errors.Is mismatch for %v", err)
	}

	if got := err.Error(); got != "expected ':' at position 3" {
		t.Errorf("Error() = %q", got)
	}

	if pos, ok := err.Position(); !ok || pos != 3 {
		t.Errorf("Position() = %d, %v", pos, ok)
	}

	if _, ok := ErrExpectedColon.Position(); ok {
		t.Error("sentinel must not carry a position")
	}

	wrapped := ErrEncoding.Wrap(io.EOF)
	if !errors.Is(wrapped, io.EOF) || !errors.Is(wrapped, ErrEncoding) {
		t.Errorf("wrapped error lost its chain: %v", wrapped)
	}

	if got := wrapped.Error(); got != "encoding error: EOF" {
		t.Errorf("Error() = %q", got)
	}

	if WrapError(wrapped) != wrapped {
		t.Error("WrapError must return an existing *Error")
	}
}
