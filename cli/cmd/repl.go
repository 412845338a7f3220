package cmd

import (
	"context"

	"github.com/ardnew/qsplit/cli/cmd/repl"
	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/pkg"
)

// Repl starts an interactive session that parses search strings as they are
// typed.
type Repl struct {
	Parser      parseOptions `embed:""`
	Format      string       `default:"tree" enum:"tree,native,json,yaml" help:"Initial result format (${enum})." short:"o"`
	HistorySize int          `default:"${historySize}" help:"Number of history entries kept." placeholder:"N"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	opts, err := r.Parser.options()
	if err != nil {
		return err
	}

	cache, err := r.Parser.cache()
	if err != nil {
		return err
	}

	return repl.Run(ctx, repl.Config{
		Options:         opts,
		Cache:           cache,
		DefaultOperator: r.Parser.DefaultOperator,
		Format:          r.Format,
		CacheDir:        kongVar(ctx, CacheIdentifier, pkg.CacheDir()),
		HistorySize:     r.HistorySize,
		Logger:          log.Default(),
	})
}
