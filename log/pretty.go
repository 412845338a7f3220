package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyHandler writes colorized records for a terminal. In text layout each
// record is one line of key=value pairs; in JSON layout each record is an
// indented object with unquoted values.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	layout Format
	prefix string      // dotted group path applied to attribute keys
	attrs  []slog.Attr // preformatted with prefix
}

func newPrettyHandler(
	w io.Writer,
	layout Format,
	opts *slog.HandlerOptions,
) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		layout: layout,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))

	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}

		out = append(out, a)
	}

	return out
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	builtin := []slog.Attr{
		slog.Time(slog.TimeKey, r.Time),
		slog.Any(slog.LevelKey, r.Level),
	}

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			builtin = append(builtin,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	builtin = append(builtin, slog.String(slog.MessageKey, r.Message))

	for _, a := range builtin {
		if a.Key == slog.TimeKey && r.Time.IsZero() {
			continue
		}

		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			fields = append(fields, a)
		}
	}

	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, h.qualify([]slog.Attr{a})...)

		return true
	})

	buf := new(bytes.Buffer)

	switch h.layout {
	case FormatJSON:
		h.writeJSON(buf, fields)
	default:
		h.writeText(buf, fields)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) writeText(buf *bytes.Buffer, fields []slog.Attr) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(colorGray + a.Key + colorReset + "=")
		writeValue(buf, a.Key, a.Value)
	}
}

func (h *prettyHandler) writeJSON(buf *bytes.Buffer, fields []slog.Attr) {
	buf.WriteString("{")

	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		buf.WriteString("\n  " + colorGray + a.Key + colorReset + ": ")
		writeValue(buf, a.Key, a.Value)
	}

	buf.WriteString("\n}")
}

// writeValue writes v colored by kind. The level attribute is colored by
// severity.
func writeValue(buf *bytes.Buffer, key string, v slog.Value) {
	v = v.Resolve()

	color, text := colorCyan, ""

	switch v.Kind() {
	case slog.KindInt64:
		color, text = colorYellow, strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		color, text = colorYellow, strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		color, text = colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		color, text = colorRed, "false"
		if v.Bool() {
			color, text = colorGreen, "true"
		}
	case slog.KindDuration:
		color, text = colorMagenta, v.Duration().String()
	case slog.KindTime:
		color, text = colorBlue, v.Time().Format(time.RFC3339)
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, a.Key+"="+a.Value.Resolve().String())
		}

		text = "{" + strings.Join(parts, " ") + "}"
	default:
		text = v.String()
	}

	if key == slog.LevelKey {
		color = levelColor(text)
	}

	buf.WriteString(color + text + colorReset)
}

func levelColor(level string) string {
	switch ParseLevel(level) {
	case LevelError:
		return colorRed
	case LevelWarn:
		return colorYellow
	case LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}
