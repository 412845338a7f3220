package query

import (
	"log/slog"
	"strings"
	"unicode"
)

type literalKind int

const (
	literalUnquoted literalKind = iota
	literalQuoted
	literalParen
)

// parseLiteral parses a quoted or unquoted literal, or a parenthesized one
// when paren is set. On failure the cursor is unchanged.
func (p *parser) parseLiteral(paren bool) (string, literalKind, *Error) {
	switch ch := p.peek(); {
	case ch == '"' || ch == '\'':
		s, err := p.parseQuoted()

		return s, literalQuoted, err

	case ch == '(' && paren:
		s, err := p.parseParenValue()

		return s, literalParen, err

	default:
		s, err := p.parseUnquoted()

		return s, literalUnquoted, err
	}
}

// parseQuoted parses a literal enclosed in matching single or double
// quotes. A backslash escapes the quote character or another backslash;
// any other backslash is kept as written.
func (p *parser) parseQuoted() (string, *Error) {
	start := p.pos
	quote := p.input[p.pos]
	p.pos++

	var b strings.Builder

	for p.pos < len(p.input) {
		switch c := p.input[p.pos]; {
		case c == '\\' && p.pos+1 < len(p.input) &&
			(p.input[p.pos+1] == quote || p.input[p.pos+1] == '\\'):
			b.WriteByte(p.input[p.pos+1])
			p.pos += 2

		case c == quote:
			p.pos++

			return b.String(), nil

		default:
			b.WriteByte(c)
			p.pos++
		}
	}

	p.pos = start

	return "", ErrUnterminatedQuote.WithPosition(start).
		With(slog.String("quote", string(quote)))
}

// parseUnquoted scans up to the next ':', '(', ')', or whitespace. The
// sequence `\:` stands for a literal colon.
func (p *parser) parseUnquoted() (string, *Error) {
	var b strings.Builder

scan:
	for !p.eof() {
		switch r := p.peek(); {
		case r == '\\' && strings.HasPrefix(p.input[p.pos:], `\:`):
			b.WriteByte(':')
			p.pos += 2

		case r == ':' || r == '(' || r == ')' || unicode.IsSpace(r):
			break scan

		default:
			from := p.pos
			p.advance()
			b.WriteString(p.input[from:p.pos])
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// parseParenValue parses a value wrapped in parentheses. The sequence `\)`
// stands for a literal closing parenthesis. The content is not trimmed.
func (p *parser) parseParenValue() (string, *Error) {
	start := p.pos
	p.pos++ // '('

	var b strings.Builder

	for p.pos < len(p.input) {
		switch c := p.input[p.pos]; {
		case c == '\\' && p.pos+1 < len(p.input) && p.input[p.pos+1] == ')':
			b.WriteByte(')')
			p.pos += 2

		case c == ')':
			p.pos++

			return b.String(), nil

		default:
			b.WriteByte(c)
			p.pos++
		}
	}

	p.pos = start

	return "", ErrUnterminatedParenValue.WithPosition(start)
}
