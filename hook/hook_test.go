package hook

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/query"
)

func TestAccept(t *testing.T) {
	h, err := Accept(`key not in ["password", "token"]`)
	if err != nil {
		t.Fatal(err)
	}

	res := query.Parse(context.Background(), "from:bob password:hunter2", query.WithPreAdd(h))

	var got []query.Expression
	for _, e := range res.Parsed.Leaves() {
		got = append(got, e)
	}

	want := []query.Expression{
		{Key: "from", Operator: "eq", Value: "bob"},
		{Key: "1", Operator: "eq", Value: "1"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("leaves mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  query.Expression
		want   query.Expression
	}{
		{
			name:   "lower key",
			source: `{key: lower(key)}`,
			input:  query.Expression{Key: "FROM", Operator: "eq", Value: "Bob"},
			want:   query.Expression{Key: "from", Operator: "eq", Value: "Bob"},
		},
		{
			name:   "all fields",
			source: `{key: "k", operator: operator + "!", value: trim(value)}`,
			input:  query.Expression{Key: "a", Operator: "eq", Value: "  b  "},
			want:   query.Expression{Key: "k", Operator: "eq!", Value: "b"},
		},
		{
			name:   "conditional",
			source: `key == "size" ? {operator: "gt"} : {}`,
			input:  query.Expression{Key: "size", Operator: "eq", Value: "10"},
			want:   query.Expression{Key: "size", Operator: "gt", Value: "10"},
		},
		{
			name:   "unknown field",
			source: `{label: "x"}`,
			input:  query.Expression{Key: "a", Operator: "eq", Value: "b"},
			want:   query.Expression{Key: "a", Operator: "eq", Value: "b"},
		},
		{
			name:   "non-string field",
			source: `{value: 42}`,
			input:  query.Expression{Key: "a", Operator: "eq", Value: "b"},
			want:   query.Expression{Key: "a", Operator: "eq", Value: "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Transform(tt.source)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.want, tr.Transform(tt.input)); diff != "" {
				t.Errorf("transform mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Accept(`key +`); !errors.Is(err, ErrCompile) {
		t.Errorf("err = %v, want %v", err, ErrCompile)
	}

	if _, err := Accept(`key`); !errors.Is(err, ErrCompile) {
		t.Errorf("non-bool: err = %v, want %v", err, ErrCompile)
	}

	if _, err := Transform(`key`); !errors.Is(err, ErrCompile) {
		t.Errorf("non-map: err = %v, want %v", err, ErrCompile)
	}

	if _, err := Accept(`missing == 1`); !errors.Is(err, ErrCompile) {
		t.Errorf("unknown variable: err = %v, want %v", err, ErrCompile)
	}
}

func TestEvaluateFailure(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false))

	h, err := Accept(`int(value) > 5`, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	e := query.Expression{Key: "size", Operator: "eq", Value: "big"}

	got, ok := h.PreAdd(e)
	if !ok || got != e {
		t.Errorf("PreAdd = %+v, %v; want unchanged and accepted", got, ok)
	}

	if !strings.Contains(buf.String(), `"msg":"hook skipped"`) {
		t.Errorf("missing warning in log output: %s", buf.String())
	}

	if _, ok := h.PreAdd(query.Expression{Value: "3"}); ok {
		t.Error("expected 3 to be rejected")
	}
}
