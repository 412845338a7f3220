package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/qsplit/query"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "keys", "format", "edit", "clear", "quit"}

// formats are the result renderings selectable with the format command.
var formats = []string{"tree", "native", "json", "yaml"}

// keywords are offered wherever a key may start, since a join keyword may
// appear there instead.
var keywords = []string{"and", "or", "not"}

// isWordBoundary reports whether r delimits a completion word in search
// notation.
func isWordBoundary(r rune) bool {
	switch r {
	case ':', '(', ')', '"', '\'':
		return true
	}

	return unicode.IsSpace(r)
}

// wordBounds returns the word at the cursor position and its byte bounds
// within input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// vocabulary holds the distinct keys, operators, and values seen during a
// session, those of the most recent parse first.
type vocabulary struct {
	keys      []string
	operators []string
	values    []string
}

func (v *vocabulary) learn(m query.Meta) {
	v.keys = prepend(v.keys, m.Keys)
	v.operators = prepend(v.operators, m.Operators)
	v.values = prepend(v.values, m.Values)
}

// prepend moves add, in order, to the front of list, keeping entries
// unique. Empty strings in add are skipped.
func prepend(list, add []string) []string {
	out := make([]string, 0, len(list)+len(add))

	for _, s := range add {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	for _, s := range list {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	return out
}

// candidates returns the completion candidates for a slot.
func (v *vocabulary) candidates(s slot, defaultOperator string) []string {
	switch s {
	case slotKey:
		return append(slices.Clone(v.keys), keywords...)

	case slotOperator:
		return prepend(v.operators, []string{defaultOperator})

	case slotValue:
		return append(slices.Clone(v.values), v.operators...)

	default:
		return nil
	}
}

// ctrlCandidates returns the completion candidates for a control command
// line with the word starting at wordStart.
func ctrlCandidates(input string, wordStart int) []string {
	fields := strings.Fields(input[:wordStart])

	switch {
	case len(fields) == 0:
		return ctrlCommands

	case len(fields) == 1 && fields[0] == "format":
		return formats

	default:
		return nil
	}
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor. An empty word yields no matches so the hint line stays visible.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	if m.mode == modeCtrl {
		candidates = ctrlCandidates(input, wordStart)
	} else {
		candidates = m.vocab.candidates(slotAt(input, wordStart), m.defaultOperator)
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit within width.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
