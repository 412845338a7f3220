package cmd

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// kongVar returns the kong variable name, or fallback if unset.
func kongVar(ctx context.Context, name, fallback string) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		if v, ok := ktx.Model.Vars()[name]; ok {
			return v
		}
	}

	return fallback
}

type streamsKey struct{}

// Streams are the standard streams a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// WithStreams returns a new context.Context whose commands use s instead of
// the process's standard streams. Nil members keep the process default.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// input selects the search strings a command operates on.
type input struct {
	File  []string `help:"Read search strings, one per line, from FILE ('-' for stdin)." placeholder:"FILE" short:"f"`
	Query []string `arg:"" help:"Search string (words are joined with spaces). Reads stdin lines when omitted or '-'." name:"query" optional:""`
}

// queries returns the search strings selected by in.
func (in *input) queries(ctx context.Context) ([]string, error) {
	switch {
	case len(in.File) > 0:
		return readSources(ctx, in.File)

	case len(in.Query) > 0 && !(len(in.Query) == 1 && in.Query[0] == stdinSource):
		return []string{strings.Join(in.Query, " ")}, nil

	default:
		return readSources(ctx, []string{stdinSource})
	}
}

// fileKey uniquely identifies a file by its device and inode numbers.
type fileKey struct {
	dev uint64
	ino uint64
}

// readSources returns the non-blank lines of each source in order.
//
// Sources are de-duplicated by resolving symlinks and comparing device and
// inode numbers. Every "-" (and any path naming the same file as stdin)
// collapses into a single read of stdin placed after all regular files.
func readSources(ctx context.Context, sources []string) ([]string, error) {
	stdin := streamsFrom(ctx).In

	var stdinKey fileKey
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil {
			stdinKey, _ = makeFileKey(info)
		}
	}

	var (
		lines    []string
		hasStdin bool
		seen     = map[fileKey]struct{}{}
	)

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		file, key, err := openUnique(src, seen)
		if err != nil {
			return nil, ErrSource.Wrap(err).With(slog.String("file", src))
		}

		if file == nil {
			continue
		}

		if key == stdinKey && key != (fileKey{}) {
			hasStdin = true

			file.Close()

			continue
		}

		lines, err = appendLines(lines, file)
		file.Close()

		if err != nil {
			return nil, ErrSource.Wrap(err).With(slog.String("file", src))
		}
	}

	if hasStdin {
		var err error
		if lines, err = appendLines(lines, stdin); err != nil {
			return nil, ErrSource.Wrap(err).With(slog.String("file", stdinSource))
		}
	}

	return lines, nil
}

// appendLines appends the non-blank lines of r to lines.
func appendLines(lines []string, r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	return lines, scanner.Err()
}

// openUnique opens the file at path unless a file with the same identity
// was already seen, in which case it returns a nil file.
func openUnique(path string, seen map[fileKey]struct{}) (*os.File, fileKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fileKey{}, err
	}

	key, ok := makeFileKey(info)
	if ok {
		if _, dup := seen[key]; dup {
			return nil, key, nil
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)

	return file, key, err
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
