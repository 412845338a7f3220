package query

import "github.com/ardnew/qsplit/log"

// Process-wide fallbacks read when a parse's options are assembled.
// Per-call options always take precedence. Set these before parsing
// concurrently.
//
//nolint:gochecknoglobals
var (
	// DefaultOperator is the operator given to key:value leaves.
	DefaultOperator = "eq"
	// DefaultDebug enables per-rule trace logging.
	DefaultDebug = false
	// DefaultMaxDepth bounds group nesting.
	DefaultMaxDepth = 100
)

// Transformer rewrites each leaf before it is committed.
type Transformer interface {
	Transform(e Expression) Expression
}

// TransformFunc adapts a function to [Transformer].
type TransformFunc func(Expression) Expression

// Transform calls f(e).
func (f TransformFunc) Transform(e Expression) Expression { return f(e) }

// Hook inspects each transformed leaf before it is committed.
// Returning false replaces the leaf with a placeholder that a condition
// builder treats as always true (1 <op> 1); the node itself is kept so the
// tree mirrors the input's terms.
type Hook interface {
	PreAdd(e Expression) (Expression, bool)
}

// HookFunc adapts a function to [Hook].
type HookFunc func(Expression) (Expression, bool)

// PreAdd calls f(e).
func (f HookFunc) PreAdd(e Expression) (Expression, bool) { return f(e) }

// Option configures a call to [Parse].
type Option func(*options)

type options struct {
	logger          log.Logger
	transform       Transformer
	preAdd          Hook
	defaultOperator string
	maxDepth        int
	debug           bool
	partialGroups   bool
}

// key holds the options that affect a parse result and can be compared.
type key struct {
	defaultOperator string
	maxDepth        int
	partialGroups   bool
}

func makeOptions(opts ...Option) options {
	o := options{
		defaultOperator: DefaultOperator,
		maxDepth:        DefaultMaxDepth,
		debug:           DefaultDebug,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.maxDepth <= 0 {
		o.maxDepth = DefaultMaxDepth
	}

	switch {
	case !o.debug:
		o.logger = log.Logger{}
	case o.logger.Logger == nil:
		o.logger = log.Default().Wrap(log.WithLevel(log.LevelTrace))
	}

	return o
}

func (o options) key() key {
	return key{
		defaultOperator: o.defaultOperator,
		maxDepth:        o.maxDepth,
		partialGroups:   o.partialGroups,
	}
}

// cacheable reports whether results under o depend only on the input and
// o.key().
func (o options) cacheable() bool {
	return o.transform == nil && o.preAdd == nil && !o.debug
}

// WithDefaultOperator sets the operator given to key:value leaves.
func WithDefaultOperator(op string) Option {
	return func(o *options) { o.defaultOperator = op }
}

// WithDebug enables trace logging of every grammar rule, keyed by nesting
// depth and input position. Without [WithLogger], traces go to the default
// logger.
func WithDebug(enable bool) Option {
	return func(o *options) { o.debug = enable }
}

// WithLogger sets the logger used for debug traces.
// It has no effect unless debugging is enabled.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTransform sets the leaf transformer. A nil transformer is the
// identity.
func WithTransform(t Transformer) Option {
	return func(o *options) { o.transform = t }
}

// WithPreAdd sets the hook consulted before a leaf is committed.
func WithPreAdd(h Hook) Option {
	return func(o *options) { o.preAdd = h }
}

// WithMaxDepth bounds group nesting. Input nested deeper stops parsing with
// [ErrMaxDepthExceeded]. Values below one select [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithPartialGroups keeps the nodes of a group that never closed in the
// parsed tree instead of discarding the whole group. The unparsed text still
// starts at the group's opening parenthesis.
func WithPartialGroups(keep bool) Option {
	return func(o *options) { o.partialGroups = keep }
}
