package repl

import (
	"context"
	"strconv"
	"strings"

	"github.com/ardnew/qsplit/query"
)

const resultIndent = 2

// renderResult renders res for printing above the prompt.
func renderResult(ctx context.Context, res *query.Result, format string) (string, error) {
	var b strings.Builder

	switch format {
	case "native":
		b.WriteString(resultStyle.Render(res.Parsed.String()))

	case "json", "yaml":
		data, err := query.Marshal(ctx, res, query.Encoding(format), resultIndent)
		if err != nil {
			return "", err
		}

		b.WriteString(resultStyle.Render(strings.TrimRight(string(data), "\n")))

	default:
		var tree strings.Builder
		if err := res.Parsed.Print(&tree); err != nil {
			return "", err
		}

		b.WriteString(resultStyle.Render(strings.TrimRight(tree.String(), "\n")))
	}

	if !res.Complete() {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("unparsed: " + strconv.Quote(res.Unparsed)))

		if d := res.Diagnose(); d != nil {
			b.WriteString("\n")
			b.WriteString(hintStyle.Render(d.Error()))
		}
	}

	if format == "tree" || format == "native" {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render(summarize(res.Meta)))
	}

	return b.String(), nil
}

// summarize renders metadata on one line.
func summarize(m query.Meta) string {
	return "keys: " + strings.Join(m.Keys, ", ") +
		" | operators: " + strings.Join(m.Operators, ", ") +
		" | values: " + strings.Join(m.Values, ", ")
}

// String lists the session vocabulary, one slot per line.
func (v *vocabulary) String() string {
	return "  keys       " + strings.Join(v.keys, ", ") + "\n" +
		"  operators  " + strings.Join(v.operators, ", ") + "\n" +
		"  values     " + strings.Join(v.values, ", ")
}
