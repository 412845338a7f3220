// Package hook builds [query.Hook] and [query.Transformer] values from
// expr-lang expressions, so filters and rewrites can be supplied on the
// command line instead of compiled in.
//
// Expressions see the current leaf as the variables key, operator, and
// value:
//
//	accept, _ := hook.Accept(`key not in ["password", "token"]`)
//	rewrite, _ := hook.Transform(`{key: lower(key), value: trim(value)}`)
//
//	res := query.Parse(ctx, input,
//		query.WithPreAdd(accept),
//		query.WithTransform(rewrite))
package hook

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/query"
)

var (
	ErrCompile  = query.NewError("expression compilation failed")
	ErrEvaluate = query.NewError("expression evaluation failed")
	ErrOverride = query.NewError("invalid transform result")
)

// Env is the environment an expression is evaluated in.
type Env struct {
	Key      string `expr:"key"`
	Operator string `expr:"operator"`
	Value    string `expr:"value"`
}

func envOf(e query.Expression) Env {
	return Env{Key: e.Key, Operator: e.Operator, Value: e.Value}
}

// Option configures a compiled expression.
type Option func(*program)

// WithLogger sets the logger that receives evaluation failures.
func WithLogger(logger log.Logger) Option {
	return func(p *program) { p.logger = logger }
}

type program struct {
	logger log.Logger
	source string
	prog   *vm.Program
}

func compile(source string, kind []expr.Option, opts ...Option) (*program, error) {
	prog, err := expr.Compile(source, append([]expr.Option{expr.Env(Env{})}, kind...)...)
	if err != nil {
		return nil, ErrCompile.Wrap(err).With(slog.String("source", source))
	}

	p := &program{source: source, prog: prog}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

func (p *program) run(e query.Expression) (any, error) {
	out, err := vm.Run(p.prog, envOf(e))
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).With(slog.String("source", p.source))
	}

	return out, nil
}

func (p *program) warn(e query.Expression, err error) {
	p.logger.Warn("hook skipped",
		slog.String("key", e.Key),
		slog.String("operator", e.Operator),
		slog.String("value", e.Value),
		slog.Any("error", err))
}

// Accept compiles a boolean expression into a [query.Hook]. Leaves for
// which it evaluates false are replaced by the parser's placeholder. A leaf
// whose evaluation fails is accepted unchanged.
func Accept(source string, opts ...Option) (query.Hook, error) {
	p, err := compile(source, []expr.Option{expr.AsBool()}, opts...)
	if err != nil {
		return nil, err
	}

	return query.HookFunc(func(e query.Expression) (query.Expression, bool) {
		out, err := p.run(e)
		if err != nil {
			p.warn(e, err)

			return e, true
		}

		ok, _ := out.(bool)

		return e, ok
	}), nil
}

// Transform compiles a map-valued expression into a [query.Transformer].
// Entries named key, operator, or value replace the corresponding field of
// the leaf. A leaf whose evaluation fails, or whose result holds an unknown
// or non-string entry, is left unchanged.
func Transform(source string, opts ...Option) (query.Transformer, error) {
	p, err := compile(source, []expr.Option{expr.AsKind(reflect.Map)}, opts...)
	if err != nil {
		return nil, err
	}

	return query.TransformFunc(func(e query.Expression) query.Expression {
		out, err := p.run(e)
		if err != nil {
			p.warn(e, err)

			return e
		}

		t, err := override(e, out)
		if err != nil {
			p.warn(e, err)

			return e
		}

		return t
	}), nil
}

func override(e query.Expression, out any) (query.Expression, error) {
	m, ok := out.(map[string]any)
	if !ok {
		return e, ErrOverride.With(slog.String("type", fmt.Sprintf("%T", out)))
	}

	for name, v := range m {
		s, ok := v.(string)
		if !ok {
			return e, ErrOverride.With(slog.String("field", name))
		}

		switch name {
		case "key":
			e.Key = s
		case "operator":
			e.Operator = s
		case "value":
			e.Value = s
		default:
			return e, ErrOverride.With(slog.String("field", name))
		}
	}

	return e, nil
}
