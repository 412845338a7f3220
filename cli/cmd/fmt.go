package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/qsplit/query"
)

// Fmt parses search strings and writes only the parsed condition tree in
// the chosen format. Unparsed remainders are discarded.
type Fmt struct {
	Native  Native  `cmd:"" default:"withargs" help:"Format as explicit key:operator:value notation (default)."`
	JSON    JSON    `cmd:""                    help:"Format as JSON."`
	YAML    YAML    `cmd:""                    help:"Format as YAML."`
	Tree    Tree    `cmd:""                    help:"Format as an indented outline."`
	CBOR    CBOR    `cmd:""                    help:"Format as canonical CBOR."`
	MsgPack MsgPack `cmd:"" name:"msgpack"     help:"Format as MessagePack."`
}

// dumpSource holds the flags shared by every fmt subcommand.
type dumpSource struct {
	Input  input        `embed:""`
	Parser parseOptions `embed:""`
}

// run parses every selected search string and passes each parsed tree to
// write in order.
func (s *dumpSource) run(
	ctx context.Context,
	format string,
	write func(w io.Writer, d query.Dump) error,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	queries, err := s.Input.queries(ctx)
	if err != nil {
		return err
	}

	parse, _, err := s.Parser.parser(ctx)
	if err != nil {
		return err
	}

	out := streamsFrom(ctx).Out

	for _, q := range queries {
		if err := write(out, parse(q).Parsed); err != nil {
			return ErrOutput.Wrap(err).With(slog.String("format", format))
		}
	}

	return nil
}

// encoded returns a write function serializing each tree with enc.
func encoded(ctx context.Context, enc query.Encoding, indent int) func(io.Writer, query.Dump) error {
	first := true

	return func(w io.Writer, d query.Dump) error {
		data, err := query.Marshal(ctx, d, enc, indent)
		if err != nil {
			return err
		}

		if enc == query.EncodingYAML && !first {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}

		first = false

		if _, err := w.Write(data); err != nil {
			return err
		}

		if !enc.Binary() && (len(data) == 0 || data[len(data)-1] != '\n') {
			_, err = io.WriteString(w, "\n")
		}

		return err
	}
}

// Native formats trees as explicit key:operator:value notation.
type Native struct {
	Source dumpSource `embed:""`
}

// Run executes the native command.
func (n *Native) Run(ctx context.Context) error {
	return n.Source.run(ctx, "native", writeNative)
}

// writeNative writes d in search notation followed by a newline.
func writeNative(w io.Writer, d query.Dump) error {
	if _, err := d.WriteTo(w); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")

	return err
}

// JSON formats trees as JSON, one document per search string.
type JSON struct {
	Source dumpSource `embed:""`

	Indent int `default:"0" help:"Indent width for JSON output (0 writes one line per tree)." short:"i"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return j.Source.run(ctx, "json", encoded(ctx, query.EncodingJSON, j.Indent))
}

// YAML formats trees as a stream of YAML documents.
type YAML struct {
	Source dumpSource `embed:""`

	Indent int `default:"2" help:"Indent width for YAML output (0 writes flow style)." short:"i"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return y.Source.run(ctx, "yaml", encoded(ctx, query.EncodingYAML, y.Indent))
}

// Tree formats trees as an indented outline.
type Tree struct {
	Source dumpSource `embed:""`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) error {
	first := true

	return t.Source.run(ctx, "tree", func(w io.Writer, d query.Dump) error {
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}

		first = false

		return d.Print(w)
	})
}

// CBOR formats trees as a CBOR sequence.
type CBOR struct {
	Source dumpSource `embed:""`
}

// Run executes the cbor command.
func (c *CBOR) Run(ctx context.Context) error {
	return c.Source.run(ctx, "cbor", encoded(ctx, query.EncodingCBOR, 0))
}

// MsgPack formats trees as a MessagePack stream.
type MsgPack struct {
	Source dumpSource `embed:""`
}

// Run executes the msgpack command.
func (m *MsgPack) Run(ctx context.Context) error {
	return m.Source.run(ctx, "msgpack", encoded(ctx, query.EncodingMsgPack, 0))
}
