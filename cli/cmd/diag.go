package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardnew/qsplit/query"
)

// Diag renders a diagnostic for a position in a search string.
type Diag struct {
	Position int    `help:"Byte offset of the error in INPUT." required:""`
	Message  string `default:"error" help:"Message printed above the context." short:"m"`
	Radius   int    `default:"${radius}" help:"Bytes of context shown either side of the position." short:"r"`

	Input []string `arg:"" help:"Search string (words are joined with spaces)." name:"input"`
}

// Run executes the diag command.
func (d *Diag) Run(ctx context.Context) error {
	diag := query.FormatError(strings.Join(d.Input, " "), d.Position, d.Message, d.Radius)

	if _, err := fmt.Fprintln(streamsFrom(ctx).Out, diag); err != nil {
		return ErrOutput.Wrap(err)
	}

	return nil
}
