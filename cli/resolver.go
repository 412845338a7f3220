package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/qsplit/log"
)

// resolve returns a [kong.ConfigurationLoader] that reads YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config.yaml")
//
// The YAML document is converted as follows:
//   - Top-level keys name flags; hyphens and underscores are interchangeable
//   - Nested maps are flattened by joining keys with hyphens, so
//     log: {level: debug} sets --log-level
//   - Numbers are passed to Kong as strings
//
// Example config file:
//
//	log:
//	  level: debug
//	  pretty: false
//	default-operator: has
//	max_depth: 20
//
// Command-line flags override config file values. A file that is not valid
// YAML is logged and ignored.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		err := yaml.NewDecoder(r).DecodeContext(ctx, &doc)

		switch {
		case errors.Is(err, io.EOF):
			return config{}, nil

		case err != nil:
			log.WarnContext(ctx, "ignoring invalid configuration",
				slog.String("error", err.Error()))

			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] for flattened YAML configs.
// Keys are stored with underscores replaced by hyphens.
type config map[string]any

// flatten copies the entries of m into c, prefixing each key with prefix.
func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := prefix + strings.ReplaceAll(k, "_", "-")

		if sub, ok := v.(map[string]any); ok {
			c.flatten(key+"-", sub)

			continue
		}

		c[key] = scalar(v)
	}
}

// scalar converts numbers to the string form Kong parses.
func scalar(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = scalar(e)
		}

		return out
	default:
		return v
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[strings.ReplaceAll(flag.Name, "_", "-")]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}
