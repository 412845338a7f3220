package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
)

// testCLI is a reduced command tree used to exercise init.
type testCLI struct {
	Verbose bool   `help:"Enable verbose output"`
	Output  string `help:"Output file"`
	Parse   Parse  `cmd:"" default:"withargs"`
	Init    Init   `cmd:""`
}

func testKongContext(t *testing.T, confPath string, args ...string) *kong.Context {
	t.Helper()

	var cli testCLI

	parser, err := kong.New(&cli, kong.Vars(Vars()), kong.Vars{
		ConfigIdentifier: confPath,
	})
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return kctx
}

// TestInitRun tests the Init.Run command.
func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		setup   func(t *testing.T, path string) // setup function to prepare test
		wantErr error
	}{
		{
			name:  "create_new_config",
			force: false,
		},
		{
			name:  "overwrite_existing_with_force",
			force: true,
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name:  "fail_without_force",
			force: false,
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: ErrFileExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.setup != nil {
				tt.setup(t, confPath)
			}

			ctx := WithContext(context.Background(), testKongContext(t, confPath, "init"))

			initCmd := &Init{Force: tt.force}

			err := initCmd.Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
			}

			if tt.wantErr != nil {
				return
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var got map[string]any
			if err := yaml.Unmarshal(content, &got); err != nil {
				t.Fatalf("generated config is not valid YAML: %v", err)
			}

			if got["default-operator"] != "eq" {
				t.Errorf("default-operator = %v, want %q", got["default-operator"], "eq")
			}
		})
	}
}

// TestInitConfigValues tests that configValues collects set flags and
// defaults from the whole command tree.
func TestInitConfigValues(t *testing.T) {
	t.Parallel()

	kctx := testKongContext(t, "unused", "--verbose", "--output=test.txt", "--default-operator=has", "a:b")
	ctx := WithContext(context.Background(), kctx)

	values := map[string]any{}
	for _, item := range (&Init{}).configValues(ctx) {
		values[item.Key.(string)] = item.Value
	}

	want := map[string]any{
		"verbose":          true,
		"output":           "test.txt",
		"default-operator": "has",
		"max-depth":        100,
		"cache-size":       256,
		"partial-groups":   false,
		"debug":            false,
		"format":           "tree",
		"indent":           2,
		"explain":          false,
		"strict":           false,
	}

	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("configValues() mismatch (-want +got):\n%s", diff)
	}
}

// TestInitFlagValue tests flagValue with different types.
func TestInitFlagValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"bool_true", true, true},
		{"string_value", "test", "test"},
		{"empty_string", "", nil},
		{"int_value", 42, 42},
		{"empty_slice", []string{}, nil},
		{"string_slice", []string{"a", "b"}, []string{"a", "b"}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, flagValue(tt.in)); diff != "" {
				t.Errorf("flagValue() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestInitWithInvalidPath tests Init with an invalid config path.
func TestInitWithInvalidPath(t *testing.T) {
	t.Parallel()

	confPath := filepath.Join(t.TempDir(), "missing", "config.yaml")
	ctx := WithContext(context.Background(), testKongContext(t, confPath, "init"))

	err := (&Init{}).Run(ctx)
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
	}
}
