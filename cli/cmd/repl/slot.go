package repl

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ardnew/qsplit/query"
)

// slot identifies the part of a leaf expression under the cursor.
type slot int

const (
	slotNone slot = iota
	slotKey
	slotOperator
	slotValue
)

func (s slot) String() string {
	switch s {
	case slotKey:
		return "key"
	case slotOperator:
		return "operator"
	case slotValue:
		return "value"
	default:
		return ""
	}
}

// slotAt reports which slot of its leaf the byte offset cursor falls in.
//
// The scan counts the colons of the term the cursor is in, skipping quoted
// and parenthesized literals. With one colon before the cursor, the slot is
// the operator only if another colon follows within the same term.
func slotAt(input string, cursor int) slot {
	cursor = min(max(cursor, 0), len(input))

	var (
		colons int
		quote  byte
		paren  bool
	)

	for i := 0; i < cursor; i++ {
		c := input[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

		case paren:
			if c == '\\' {
				i++
			} else if c == ')' {
				paren = false
			}

		case c == '\\':
			i++

		case c == '"' || c == '\'':
			quote = c

		case c == ':':
			colons++

		case c == '(':
			paren = colons > 0
			if !paren {
				colons = 0
			}

		case c == ')' || unicode.IsSpace(rune(c)):
			colons = 0
		}
	}

	switch {
	case colons == 0:
		return slotKey
	case colons >= 2 || quote != 0 || paren:
		return slotValue
	case strings.Contains(termRest(input[cursor:]), ":"):
		return slotOperator
	default:
		return slotValue
	}
}

// termRest returns the unquoted prefix of s up to the end of the current
// term.
func termRest(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == '(' || r == ')' || r == '"' || r == '\'' || unicode.IsSpace(r)
	})
	if end < 0 {
		return s
	}

	return s[:end]
}

// renderSlotHint renders the leaf template with the active slot highlighted,
// followed by the live parse status of the whole input.
func renderSlotHint(s slot, res *query.Result) string {
	var b strings.Builder

	for i, part := range []slot{slotKey, slotOperator, slotValue} {
		if i > 0 {
			b.WriteString(hintStyle.Render(":"))
		}

		if part == s {
			b.WriteString(slotActiveStyle.Render(part.String()))
		} else {
			b.WriteString(hintStyle.Render(part.String()))
		}
	}

	b.WriteString("  ")
	b.WriteString(renderStatus(res))

	return b.String()
}

// renderStatus summarizes a live parse in one line.
func renderStatus(res *query.Result) string {
	if res == nil {
		return ""
	}

	leaves := strconv.Itoa(len(res.Meta.Expressions)) + " distinct leaves"

	if res.Complete() {
		return resultStyle.Render("✔ " + leaves)
	}

	e := query.WrapError(res.Err)

	msg := e.Message()
	if msg == "" {
		msg = "unparsed"
	}

	pos, ok := e.Position()
	if !ok {
		pos = len(res.Input) - len(res.Unparsed)
	}

	return errorStyle.Render("✘ " + msg + " at " + strconv.Itoa(pos))
}
