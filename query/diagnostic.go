package query

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultContextRadius is the number of bytes of input shown on either side
// of the reported position by [FormatError].
const DefaultContextRadius = 20

const contextPrefix = `Context: "`

// Diagnostic is a four-line, human-readable description of a position in a
// search string:
//
//	expected ':'
//	Position: 9
//	Context: "from:bob subject"
//	                   ^
type Diagnostic struct {
	Message  string
	Position int    // position as given by the caller
	Context  string // input clipped around the position
	Column   int    // rune offset of the caret within Context
}

// FormatError builds a [Diagnostic] for position in input.
//
// The context window extends radius bytes either side of position
// (default [DefaultContextRadius]) and is widened as needed to land on rune
// boundaries. Out-of-range positions are clamped to the input. A negative
// radius is treated as zero.
func FormatError(input string, position int, message string, radius ...int) *Diagnostic {
	r := DefaultContextRadius
	if len(radius) > 0 {
		r = max(radius[0], 0)
	}

	pos := min(max(position, 0), len(input))
	for pos > 0 && pos < len(input) && !utf8.RuneStart(input[pos]) {
		pos--
	}

	lo := max(pos-r, 0)
	for lo > 0 && !utf8.RuneStart(input[lo]) {
		lo--
	}

	hi := min(pos+r, len(input))
	for hi < len(input) && !utf8.RuneStart(input[hi]) {
		hi++
	}

	return &Diagnostic{
		Message:  message,
		Position: position,
		Context:  printable(input[lo:hi]),
		Column:   utf8.RuneCountInString(input[lo:pos]),
	}
}

// printable replaces control characters so the caret stays aligned.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}

		return r
	}, s)
}

// Lines returns the four diagnostic lines.
func (d *Diagnostic) Lines() []string {
	return []string{
		d.Message,
		"Position: " + strconv.Itoa(d.Position),
		contextPrefix + d.Context + `"`,
		strings.Repeat(" ", len(contextPrefix)+d.Column) + "^",
	}
}

// Error implements the error interface with the four lines joined by
// newlines.
func (d *Diagnostic) Error() string {
	return strings.Join(d.Lines(), "\n")
}

// LogValue implements slog.LogValuer.
func (d *Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", d.Message),
		slog.Int("position", d.Position),
		slog.String("context", d.Context),
		slog.Int("column", d.Column),
	)
}
