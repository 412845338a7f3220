package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// testContext returns a context whose commands read stdin and write to the
// returned buffers.
func testContext(t *testing.T, stdin string) (context.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer

	ctx := WithStreams(t.Context(), Streams{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
	})

	return ctx, &out, &errOut
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestInputQueries(t *testing.T) {
	tests := []struct {
		name  string
		query []string
		stdin string
		want  []string
	}{
		{
			name:  "args_joined",
			query: []string{"from:bob", "or", "to:alice"},
			want:  []string{"from:bob or to:alice"},
		},
		{
			name:  "no_args_reads_stdin",
			stdin: "a:b\n\n  c:d  \n",
			want:  []string{"a:b", "c:d"},
		},
		{
			name:  "dash_reads_stdin",
			query: []string{"-"},
			stdin: "x:y\n",
			want:  []string{"x:y"},
		},
		{
			name:  "empty_stdin",
			query: nil,
			stdin: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _, _ := testContext(t, tt.stdin)

			in := &input{Query: tt.query}

			got, err := in.queries(ctx)
			if err != nil {
				t.Fatalf("queries() error = %v", err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("queries() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestReadSourcesMultipleFiles tests reading from multiple files in order.
func TestReadSourcesMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, dir, "file1.txt", "first:1\n")
	file2 := writeFile(t, dir, "file2.txt", "second:2\nthird:3")

	ctx, _, _ := testContext(t, "")

	got, err := readSources(ctx, []string{file1, file2})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"first:1", "second:2", "third:3"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestReadSourcesDuplicatePaths tests deduplication of identical paths.
func TestReadSourcesDuplicatePaths(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "file.txt", "unique:1")

	ctx, _, _ := testContext(t, "")

	got, err := readSources(ctx, []string{file, file, file})
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Errorf("got %q, file should only be read once", got)
	}
}

// TestReadSourcesRelativeAbsoluteDuplicates tests dedup of relative and
// absolute paths pointing to the same file.
func TestReadSourcesRelativeAbsoluteDuplicates(t *testing.T) {
	dir := t.TempDir()
	abs := writeFile(t, dir, "testfile.txt", "content:1")

	t.Chdir(dir)

	ctx, _, _ := testContext(t, "")

	got, err := readSources(ctx, []string{"testfile.txt", abs})
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Errorf("got %q, file should only be read once", got)
	}
}

// TestReadSourcesSymlinkDuplicates tests dedup of symlinks pointing to the
// same file.
func TestReadSourcesSymlinkDuplicates(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "target.txt", "symlink:test")

	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	ctx, _, _ := testContext(t, "")

	got, err := readSources(ctx, []string{link, target})
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Errorf("got %q, file should only be read once", got)
	}
}

// TestReadSourcesStdinLast tests that stdin is read after all files, once.
func TestReadSourcesStdinLast(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "file.txt", "file:1")

	ctx, _, _ := testContext(t, "stdin:1\n")

	got, err := readSources(ctx, []string{"-", file, "-"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"file:1", "stdin:1"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestReadSourcesNonexistent tests that a missing file is reported.
func TestReadSourcesNonexistent(t *testing.T) {
	ctx, _, _ := testContext(t, "")

	_, err := readSources(ctx, []string{filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, ErrSource) {
		t.Errorf("readSources() error = %v, want %v", err, ErrSource)
	}
}

func TestErrorIs(t *testing.T) {
	err := ErrWriteConfig.With().Wrap(ErrFileExists)

	if !errors.Is(err, ErrWriteConfig) {
		t.Error("derived error should match its sentinel")
	}

	if !errors.Is(err, ErrFileExists) {
		t.Error("wrapped error should match")
	}

	if errors.Is(err, ErrOutput) {
		t.Error("unrelated sentinel should not match")
	}

	if got, want := err.Error(), "write configuration file: file exists (use --force to overwrite)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
