package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/query"
)

const defaultEditor = "vi"

// ErrEditDeclined is returned when the user declines to re-edit a query
// that did not parse completely.
var ErrEditDeclined = errors.New("edit declined")

// editLineCommand implements [tea.ExecCommand] for the edit-parse-retry loop
// on the current query. The query is written to a temp file and opened in
// the user's editor. Lines of the edited file are joined with spaces. If the
// result does not parse completely, the user is shown the diagnostic and
// asked whether to edit again.
type editLineCommand struct {
	ctxFunc func() context.Context
	logger  log.Logger
	parse   func(string) *query.Result
	line    string
	edited  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editLineCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editLineCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editLineCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An empty edited file leaves c.edited empty,
// which cancels the edit.
func (c *editLineCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "qsplit-repl-*.txt")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.line + "\n"

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		line := joinLines(string(data))
		if line == "" {
			return nil
		}

		res := c.parse(line)

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("length", len(line)),
			slog.Bool("complete", res.Complete()))

		if res.Complete() {
			c.edited = line

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", res.Diagnose())
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			c.edited = line

			return ErrEditDeclined
		}

		if answer := strings.ToLower(strings.TrimSpace(scanner.Text())); answer == "n" || answer == "no" {
			c.edited = line

			return ErrEditDeclined
		}

		content = string(data)
	}
}

// joinLines collapses an edited file into a single query line.
func joinLines(s string) string {
	var lines []string

	for line := range strings.Lines(s) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, " ")
}

// runEditor launches $EDITOR (or vi) on path and waits for it to exit.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
