package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/qsplit/log"
	"github.com/ardnew/qsplit/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path variable undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalContext(ctx, i.configValues(ctx),
		yaml.Indent(defaultConfigIndent), yaml.IndentSequence(true))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// configValues collects the current value of every configurable flag in the
// command tree, keyed by flag name.
func (i *Init) configValues(ctx context.Context) yaml.MapSlice {
	ktx := kongContextFrom(ctx)

	prefixIgnore := []string{"help", "version", profile.Tag}

	var (
		values yaml.MapSlice
		seen   = map[string]bool{}
	)

	var walk func(node *kong.Node)

	walk = func(node *kong.Node) {
		for _, flag := range node.Flags {
			if flag.Hidden || seen[flag.Name] || slices.ContainsFunc(prefixIgnore, func(s string) bool {
				return strings.HasPrefix(flag.Name, s)
			}) {
				continue
			}

			// Init's own flags do not belong in the file it writes.
			if node.Target.IsValid() && node.Target.Type() == reflect.TypeFor[Init]() {
				continue
			}

			seen[flag.Name] = true

			if v := flagValue(ktx.FlagValue(flag)); v != nil {
				values = append(values, yaml.MapItem{Key: flag.Name, Value: v})
			}
		}

		for _, child := range node.Children {
			walk(child)
		}
	}

	walk(ktx.Model.Node)

	return values
}

// flagValue returns the YAML value for a flag value, or nil if it is unset.
func flagValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil

	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v

	case string:
		if v == "" {
			return nil
		}

		return v

	case fmt.Stringer:
		if s := v.String(); s != "" {
			return s
		}

		return nil

	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			if rv.Len() == 0 {
				return nil
			}

			return v
		}

		return fmt.Sprint(v)
	}
}
