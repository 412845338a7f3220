package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/qsplit/query"
)

func TestParseRun(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Parse
		stdin   string
		want    string
		wantErr error
		explain bool
	}{
		{
			name: "tree",
			cmd: Parse{
				Input:  input{Query: []string{"from:bob", "or", "(label:inbox", "or", "label:starred)"}},
				Format: "tree",
			},
			want: "" +
				"or      from eq bob\n" +
				"or      (\n" +
				"or        label eq inbox\n" +
				"or        label eq starred\n" +
				"        )\n",
		},
		{
			name: "native_from_stdin",
			cmd: Parse{
				Format: "native",
			},
			stdin: "a:b\nc:gt:1\n",
			want:  "a:eq:b\nc:gt:1\n",
		},
		{
			name: "native_default_operator",
			cmd: Parse{
				Input:  input{Query: []string{"a:b"}},
				Parser: parseOptions{DefaultOperator: "has"},
				Format: "native",
			},
			want: "a:has:b\n",
		},
		{
			name: "json_compact",
			cmd: Parse{
				Input:  input{Query: []string{"a:b or (c:d)"}},
				Format: "json",
			},
			want: `{"parsed":[{"operator":"or","expression":{"key":"a","operator":"eq","value":"b"}},` +
				`{"operator":"or","condition":[{"operator":"or","expression":{"key":"c","operator":"eq","value":"d"}}]}],` +
				`"unparsed":"",` +
				`"meta":{"keys":["a","c"],"operators":["eq"],"values":["b","d"],"expressions":[` +
				`{"key":"a","operator":"eq","value":"b"},{"key":"c","operator":"eq","value":"d"}]}}` + "\n",
		},
		{
			name: "tree_incomplete",
			cmd: Parse{
				Input:  input{Query: []string{"from:bob and junk"}},
				Format: "tree",
			},
			want: "" +
				"and     from eq bob\n" +
				"unparsed: \"junk\"\n",
		},
		{
			name: "strict_incomplete",
			cmd: Parse{
				Input:  input{Query: []string{"from:bob and junk"}},
				Format: "native",
				Strict: true,
			},
			want:    "from:eq:bob\n",
			wantErr: ErrIncomplete,
		},
		{
			name: "invalid_accept",
			cmd: Parse{
				Input:  input{Query: []string{"a:b"}},
				Parser: parseOptions{Accept: "key +"},
			},
			wantErr: ErrOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out, _ := testContext(t, tt.stdin)

			err := tt.cmd.Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if diff := cmp.Diff(tt.want, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRunExplain(t *testing.T) {
	ctx, _, errOut := testContext(t, "")

	cmd := Parse{
		Input:   input{Query: []string{"from:bob subject"}},
		Format:  "native",
		Explain: true,
	}

	if err := cmd.Run(ctx); err != nil {
		t.Fatal(err)
	}

	got := errOut.String()
	if !strings.Contains(got, "expected ':'") || !strings.Contains(got, `Context: "from:bob subject"`) {
		t.Errorf("diagnostic missing from stderr:\n%s", got)
	}
}

func TestParseRunTransform(t *testing.T) {
	ctx, out, _ := testContext(t, "")

	cmd := Parse{
		Input: input{Query: []string{"FROM:Bob"}},
		Parser: parseOptions{
			DefaultOperator: query.DefaultOperator,
			Transform:       `{key: lower(key)}`,
		},
		Format: "native",
	}

	if err := cmd.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if got, want := out.String(), "from:eq:Bob\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
