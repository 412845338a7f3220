package query

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/qsplit/log"
)

// Parse splits a search string into a condition tree and the trailing text
// that could not be interpreted.
//
// The grammar, with implicit "and" between adjacent terms:
//
//	condition  = term { [ join ] term }
//	join       = ( "and" | "or" ) [ "not" ]          (case-insensitive)
//	term       = "(" condition ")" | expression
//	expression = key ":" literal [ ":" literal ]
//
// With one literal after the key, it is the value and the operator is the
// configured default. With two, the first is the operator. Literals are
// unquoted, single- or double-quoted, or (in value position only) wrapped
// in parentheses.
//
// Parse never fails. When it meets input it cannot interpret, it keeps every
// node committed so far and returns the rest of the input, starting at the
// term that failed, as [Result.Unparsed]. [Result.Err] records why.
func Parse(ctx context.Context, input string, opts ...Option) *Result {
	o := makeOptions(opts...)

	p := &parser{
		ctx:    ctx,
		input:  strings.TrimSpace(input),
		opts:   o,
		logger: o.logger,
	}

	return p.run()
}

// parser holds the state of one call to [Parse].
type parser struct {
	ctx    context.Context
	logger log.Logger
	input  string
	meta   accumulator
	opts   options
	pos    int
	depth  int
}

func (p *parser) run() *Result {
	res := &Result{Input: p.input, Parsed: Dump{}}

	if !p.eof() {
		if err := p.parseCondition(&res.Parsed, JoinAnd); err != nil {
			res.Err = err
			res.Unparsed = strings.TrimLeftFunc(p.input[p.pos:], unicode.IsSpace)

			p.trace("stop", slog.Any("error", err))
		}
	}

	res.Meta = p.meta.meta()

	return res
}

// parseCondition parses a sequence of terms into dump. join is the operator
// in effect before the first term: [JoinAnd] at the top level, or the
// operator that led into the enclosing group.
//
// The sequence ends at end of input or before a closing parenthesis, which
// is only legal inside a group.
func (p *parser) parseCondition(dump *Dump, join Join) error {
	p.trace("condition", slog.String("join", string(join)))

	for {
		if err := p.parseTerm(dump, join); err != nil {
			return err
		}

		p.skipWhitespace()

		next, ok := p.parseJoin()

		switch {
		case ok:
			join = next

		case p.eof():
			return nil

		case p.peek() == ')':
			if p.depth == 0 {
				return ErrParenLevelMismatch.WithPosition(p.pos).
					With(slog.String("unexpected", ")"))
			}

			return nil

		default:
			join = JoinAnd
		}
	}
}

// parseTerm parses one group or expression and appends it to dump.
func (p *parser) parseTerm(dump *Dump, join Join) error {
	p.skipWhitespace()

	switch {
	case p.peek() == '(':
		return p.parseGroup(dump, join)

	case p.peek() == ')' && p.depth == 0:
		return ErrParenLevelMismatch.WithPosition(p.pos).
			With(slog.String("unexpected", ")"))
	}

	expr, err := p.parseExpression()
	if err != nil {
		return err
	}

	p.push(dump, &Node{Operator: join, Expression: &expr})

	return nil
}

// parseGroup parses "(" condition ")" and appends the group node to dump.
//
// The group node is appended before its contents are parsed. If the group
// fails, the cursor returns to its "(" and, unless partial groups are kept,
// the node, the metadata it contributed, and the operator it wrote onto its
// predecessor are all undone.
func (p *parser) parseGroup(dump *Dump, join Join) error {
	start := p.pos

	if p.depth >= p.opts.maxDepth {
		return ErrMaxDepthExceeded.WithPosition(start).
			With(slog.Int("max_depth", p.opts.maxDepth))
	}

	p.trace("group", slog.String("join", string(join)))

	size := len(*dump)
	prev := Join("")

	if size > 0 {
		prev = (*dump)[size-1].Operator
	}

	snap := p.meta.snapshot()
	node := &Node{Operator: join, Condition: Dump{}}

	p.advance() // '('
	p.push(dump, node)

	p.depth++
	err := p.parseCondition(&node.Condition, join)
	p.depth--

	if err == nil {
		p.skipWhitespace()

		if !p.expect(')') {
			err = ErrExpectedClosingParen.WithPosition(p.pos).
				With(slog.Int("open", start))
		}
	}

	if err == nil {
		return nil
	}

	p.pos = start

	if !p.opts.partialGroups {
		*dump = (*dump)[:size]
		if size > 0 {
			(*dump)[size-1].Operator = prev
		}

		p.meta.restore(snap)
	}

	return err
}

// push appends n to dump. The node before it, if any, now connects to n, so
// its operator is overwritten with n's: a node's operator always names the
// edge to its next sibling.
func (p *parser) push(dump *Dump, n *Node) {
	if size := len(*dump); size > 0 {
		(*dump)[size-1].Operator = n.Operator
	}

	*dump = append(*dump, n)
}

// parseJoin matches an explicit join keyword and the whitespace after it.
// The cursor is unchanged when ok is false.
func (p *parser) parseJoin() (join Join, ok bool) {
	start := p.pos

	switch {
	case p.keyword("and"):
		join = JoinAnd
	case p.keyword("or"):
		join = JoinOr
	default:
		return "", false
	}

	if p.keyword("not") {
		if join == JoinAnd {
			join = JoinAndNot
		} else {
			join = JoinOrNot
		}
	}

	p.trace("join", slog.String("join", string(join)), slog.Int("at", start))

	return join, true
}

// keyword consumes word (case-insensitive) and one following whitespace run.
// The word must end at whitespace or "(".
func (p *parser) keyword(word string) bool {
	end := p.pos + len(word)
	if end > len(p.input) || !strings.EqualFold(p.input[p.pos:end], word) {
		return false
	}

	r, _ := utf8.DecodeRuneInString(p.input[end:])
	if r != '(' && !unicode.IsSpace(r) {
		return false
	}

	p.pos = end
	p.skipWhitespace()

	return true
}

// parseExpression parses key ":" literal [ ":" literal ] and applies the
// transform and pre-add hooks. On failure the cursor returns to the start
// of the expression.
func (p *parser) parseExpression() (Expression, error) {
	start := p.pos
	fail := func(err *Error) (Expression, error) {
		p.pos = start

		return Expression{}, err
	}

	p.trace("expression")

	key, _, err := p.parseLiteral(false)
	if err != nil {
		return fail(err)
	}

	if !p.expect(':') {
		return fail(ErrExpectedColon.WithPosition(p.pos).
			With(slog.String("key", key)))
	}

	first, kind, err := p.parseLiteral(true)
	if err != nil {
		return fail(err.With(slog.String("key", key)))
	}

	expr := Expression{Key: key, Operator: p.opts.defaultOperator, Value: first}

	mark := p.pos
	p.skipWhitespace()

	if p.peek() != ':' {
		p.pos = mark

		return p.accept(expr), nil
	}

	if kind == literalParen {
		return fail(ErrParenthesizedOperator.WithPosition(p.pos).
			With(slog.String("key", key), slog.String("operator", first)))
	}

	p.advance() // ':'

	second, _, err := p.parseLiteral(true)
	if err != nil {
		return fail(err.With(slog.String("key", key)))
	}

	expr.Operator, expr.Value = first, second

	return p.accept(expr), nil
}

// accept runs the leaf hooks and records the emitted leaf in the metadata.
func (p *parser) accept(expr Expression) Expression {
	if p.opts.transform != nil {
		expr = p.opts.transform.Transform(expr)
	}

	if p.opts.preAdd != nil {
		out, ok := p.opts.preAdd.PreAdd(expr)
		if !ok {
			p.trace("placeholder", slog.String("key", expr.Key))

			out = Expression{Key: "1", Operator: p.opts.defaultOperator, Value: "1"}
		}

		expr = out
	}

	p.meta.record(expr)

	p.trace("leaf",
		slog.String("key", expr.Key),
		slog.String("operator", expr.Operator),
		slog.String("value", expr.Value))

	return expr
}

func (p *parser) trace(msg string, attrs ...slog.Attr) {
	if !p.opts.debug {
		return
	}

	p.logger.TraceContext(p.ctx, msg,
		append([]slog.Attr{slog.Int("depth", p.depth), slog.Int("pos", p.pos)}, attrs...)...)
}

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(p.input[p.pos:])

	return r
}

func (p *parser) advance() {
	if p.eof() {
		return
	}

	_, size := utf8.DecodeRuneInString(p.input[p.pos:])

	p.pos += size
}

func (p *parser) expect(ch rune) bool {
	if !p.eof() && p.peek() == ch {
		p.advance()

		return true
	}

	return false
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) skipWhitespace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.advance()
	}
}
