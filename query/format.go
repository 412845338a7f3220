package query

import (
	"io"
	"strings"
	"unicode"
)

// String renders e in explicit key:operator:value notation.
func (e Expression) String() string {
	return quote(e.Key) + ":" + quote(e.Operator) + ":" + quote(e.Value)
}

// String renders d in search notation that [Parse] reads back into an
// equivalent tree. Every leaf is written as key:operator:value, siblings are
// separated by the keyword of the left node's operator, and groups are
// parenthesized.
func (d Dump) String() string {
	var b strings.Builder

	d.format(&b)

	return b.String()
}

// WriteTo writes the search notation of d to w.
func (d Dump) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())

	return int64(n), err
}

func (d Dump) format(b *strings.Builder) {
	for i, n := range d {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(d[i-1].Operator.Keyword())
			b.WriteByte(' ')
		}

		if n.Expression != nil {
			b.WriteString(n.Expression.String())

			continue
		}

		b.WriteByte('(')
		n.Condition.format(b)
		b.WriteByte(')')
	}
}

// quote returns s unchanged if it reads back as an unquoted literal,
// otherwise double-quoted with '"' and '\' escaped.
func quote(s string) string {
	if s != "" && !strings.ContainsFunc(s, special) {
		return s
	}

	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := range len(s) {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}

		b.WriteByte(s[i])
	}

	b.WriteByte('"')

	return b.String()
}

func special(r rune) bool {
	switch r {
	case ':', '(', ')', '"', '\'', '\\':
		return true
	}

	return unicode.IsSpace(r)
}

// Print writes an indented outline of d to w, one node per line.
//
//	or      from eq bob
//	or      (
//	or        label eq inbox
//	or        label eq starred
//	        )
func (d Dump) Print(w io.Writer) error {
	return d.print(w, 0)
}

func (d Dump) print(w io.Writer, depth int) error {
	prefix := strings.Repeat("  ", depth)

	for _, n := range d {
		op := n.Operator.Keyword() + strings.Repeat(" ", max(0, 8-len(n.Operator.Keyword())))

		var line string

		if n.Expression != nil {
			e := n.Expression
			line = op + prefix + quote(e.Key) + " " + quote(e.Operator) + " " + quote(e.Value) + "\n"
		} else {
			line = op + prefix + "(\n"
		}

		if _, err := io.WriteString(w, line); err != nil {
			return err
		}

		if n.Expression != nil {
			continue
		}

		if err := n.Condition.print(w, depth+1); err != nil {
			return err
		}

		if _, err := io.WriteString(w, strings.Repeat(" ", 8)+prefix+")\n"); err != nil {
			return err
		}
	}

	return nil
}
