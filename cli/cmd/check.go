package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/query"
)

// Check validates a serialized condition tree against the condition schema
// and prints it in native notation.
type Check struct {
	Encoding string `default:"json" enum:"json,yaml,cbor,msgpack" help:"Encoding of the document (${enum})." short:"e"`

	Source string `arg:"" default:"-" help:"Document file or '-' for stdin." name:"source"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	enc, err := query.ParseEncoding(c.Encoding)
	if err != nil {
		return ErrCheck.Wrap(err)
	}

	streams := streamsFrom(ctx)

	var data []byte

	if c.Source == stdinSource {
		data, err = io.ReadAll(streams.In)
	} else {
		data, err = os.ReadFile(c.Source)
	}

	if err != nil {
		return ErrSource.Wrap(err).With(slog.String("file", c.Source))
	}

	d, err := query.DecodeDump(ctx, data, enc)
	if err != nil {
		return ErrCheck.Wrap(err).With(
			slog.String("file", c.Source),
			slog.String("encoding", string(enc)))
	}

	meta := query.MetaOf(d)

	log.DebugContext(ctx, "condition tree valid",
		slog.String("file", c.Source),
		slog.Int("depth", d.Depth()),
		slog.Int("keys", len(meta.Keys)))

	if _, err := fmt.Fprintln(streams.Out, d); err != nil {
		return ErrOutput.Wrap(err)
	}

	return nil
}
