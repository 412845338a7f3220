package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/qsplit/cli/cmd/repl"
	"github.com/ardnew/qsplit/hook"
	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/query"
)

// parseOptions are the parser flags shared by every command that parses
// search strings.
type parseOptions struct {
	DefaultOperator string `default:"${defaultOperator}" help:"Operator given to key:value leaves." placeholder:"OP" short:"O"`
	Accept          string `help:"Leaves for which expression EXPR is false become placeholders (variables: key, operator, value)." placeholder:"EXPR"`
	Transform       string `help:"Expression EXPR yields a map overriding key, operator, or value of each leaf." placeholder:"EXPR"`
	MaxDepth        int    `default:"${maxDepth}" help:"Maximum group nesting depth." placeholder:"N"`
	CacheSize       int    `default:"${cacheSize}" help:"Number of parse results kept in memory." placeholder:"N"`
	PartialGroups   bool   `help:"Keep the nodes of a group that fails to close."`
	Debug           bool   `help:"Log every grammar rule at trace level."`
}

// Vars returns the kong variables referenced by the parser flag defaults.
func Vars() map[string]string {
	return map[string]string{
		"defaultOperator": query.DefaultOperator,
		"maxDepth":        itoa(query.DefaultMaxDepth),
		"cacheSize":       itoa(query.DefaultCacheSize),
		"radius":          itoa(query.DefaultContextRadius),
		"historySize":     itoa(repl.DefaultHistorySize),
	}
}

// options returns the query options selected by p.
func (p *parseOptions) options() ([]query.Option, error) {
	opts := []query.Option{
		query.WithMaxDepth(p.MaxDepth),
		query.WithPartialGroups(p.PartialGroups),
		query.WithDebug(p.Debug),
	}

	if p.DefaultOperator != "" {
		opts = append(opts, query.WithDefaultOperator(p.DefaultOperator))
	}

	logger := log.Default()

	if p.Accept != "" {
		h, err := hook.Accept(p.Accept, hook.WithLogger(logger))
		if err != nil {
			return nil, ErrOption.Wrap(err).With(slog.String("accept", p.Accept))
		}

		opts = append(opts, query.WithPreAdd(h))
	}

	if p.Transform != "" {
		t, err := hook.Transform(p.Transform, hook.WithLogger(logger))
		if err != nil {
			return nil, ErrOption.Wrap(err).With(slog.String("transform", p.Transform))
		}

		opts = append(opts, query.WithTransform(t))
	}

	return opts, nil
}

// cache returns an empty parse cache sized by p.
func (p *parseOptions) cache() (*query.Cache, error) {
	cache, err := query.NewCache(p.CacheSize)
	if err != nil {
		return nil, ErrOption.Wrap(err)
	}

	return cache, nil
}

// parser returns a function parsing a search string under the options
// selected by p, along with the cache it memoizes results in.
func (p *parseOptions) parser(
	ctx context.Context,
) (func(string) *query.Result, *query.Cache, error) {
	opts, err := p.options()
	if err != nil {
		return nil, nil, err
	}

	cache, err := p.cache()
	if err != nil {
		return nil, nil, err
	}

	parse := func(input string) *query.Result {
		return cache.Parse(ctx, input, opts...)
	}

	return parse, cache, nil
}
