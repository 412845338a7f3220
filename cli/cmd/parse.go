package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/query"
)

// Parse splits search strings into condition trees and reports the parsed
// tree along with any unparsed remainder.
type Parse struct {
	Input   input        `embed:""`
	Parser  parseOptions `embed:""`
	Format  string       `default:"tree" enum:"tree,native,json,yaml" help:"Output format (${enum})." short:"o"`
	Indent  int          `default:"2" help:"Indentation width of json and yaml output." placeholder:"N"`
	Explain bool         `help:"Print a diagnostic to stderr for every search string not fully parsed." short:"x"`
	Strict  bool         `help:"Fail if any search string is not fully parsed."`
}

func (p *Parse) Run(ctx context.Context) error {
	queries, err := p.Input.queries(ctx)
	if err != nil {
		return err
	}

	parse, cache, err := p.Parser.parser(ctx)
	if err != nil {
		return err
	}

	streams := streamsFrom(ctx)
	incomplete := 0

	for i, q := range queries {
		res := parse(q)

		if !res.Complete() {
			incomplete++

			log.DebugContext(ctx, "incomplete parse",
				slog.String("input", res.Input),
				slog.String("unparsed", res.Unparsed),
				slog.Any("error", res.Err))

			if p.Explain {
				fmt.Fprintln(streams.Err, res.Diagnose())
			}
		}

		if err := p.write(ctx, streams.Out, i, res); err != nil {
			return ErrOutput.Wrap(err).With(slog.String("format", p.Format))
		}
	}

	log.TraceContext(ctx, "parse complete",
		slog.Int("count", len(queries)),
		slog.Int("incomplete", incomplete),
		slog.Any("cache", cache.Stats()))

	if p.Strict && incomplete > 0 {
		return ErrIncomplete.With(slog.Int("count", incomplete))
	}

	return nil
}

// write renders the i'th result to w.
func (p *Parse) write(ctx context.Context, w io.Writer, i int, res *query.Result) error {
	switch p.Format {
	case "native":
		return writeNative(w, res.Parsed)

	case "json", "yaml":
		enc := query.Encoding(p.Format)

		data, err := query.Marshal(ctx, res, enc, p.Indent)
		if err != nil {
			return err
		}

		if enc == query.EncodingYAML && i > 0 {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}

		if _, err := w.Write(data); err != nil {
			return err
		}

		if len(data) == 0 || data[len(data)-1] != '\n' {
			_, err = io.WriteString(w, "\n")
		}

		return err

	default:
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}

		if err := res.Parsed.Print(w); err != nil {
			return err
		}

		if !res.Complete() {
			_, err := fmt.Fprintf(w, "unparsed: %q\n", res.Unparsed)

			return err
		}

		return nil
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
