package query

import (
	"iter"
	"slices"
)

// Join is the logical operator connecting a node to its next sibling.
type Join string

const (
	JoinAnd    Join = "and"
	JoinOr     Join = "or"
	JoinAndNot Join = "andNot"
	JoinOrNot  Join = "orNot"
)

// Joins lists every valid [Join].
var Joins = []Join{JoinAnd, JoinOr, JoinAndNot, JoinOrNot}

// Valid reports whether j is one of the defined join operators.
func (j Join) Valid() bool { return slices.Contains(Joins, j) }

// Keyword returns the search notation spelling of j.
func (j Join) Keyword() string {
	switch j {
	case JoinAndNot:
		return "and not"
	case JoinOrNot:
		return "or not"
	default:
		return string(j)
	}
}

// Expression is a single key:operator:value condition.
type Expression struct {
	Key      string `cbor:"key"      json:"key"      msgpack:"key" yaml:"key"`
	Operator string `cbor:"operator" json:"operator" msgpack:"operator" yaml:"operator"`
	Value    string `cbor:"value"    json:"value"    msgpack:"value" yaml:"value"`
}

// Node is one term of a condition sequence: either a leaf [Expression] or a
// parenthesized group holding a nested [Dump]. Exactly one of Expression and
// Condition is meaningful; a node with a nil Expression is a group.
//
// Operator names the join between this node and the NEXT sibling in the
// same sequence. The last node of a sequence keeps the operator that led
// into it, which consumers must ignore.
type Node struct {
	Operator   Join
	Expression *Expression
	Condition  Dump
}

// IsGroup reports whether n is a parenthesized group.
func (n *Node) IsGroup() bool { return n.Expression == nil }

// Dump is an ordered sequence of condition nodes.
type Dump []*Node

// Clone returns a deep copy of d.
func (d Dump) Clone() Dump {
	if d == nil {
		return nil
	}

	c := make(Dump, len(d))

	for i, n := range d {
		m := &Node{Operator: n.Operator}

		if n.Expression != nil {
			e := *n.Expression
			m.Expression = &e
		} else {
			m.Condition = n.Condition.Clone()
			if m.Condition == nil {
				m.Condition = Dump{}
			}
		}

		c[i] = m
	}

	return c
}

// Leaves returns an iterator over every leaf expression in d, depth-first
// in input order, paired with its nesting depth (0 at the top level).
func (d Dump) Leaves() iter.Seq2[int, Expression] {
	return func(yield func(int, Expression) bool) {
		d.leaves(0, yield)
	}
}

func (d Dump) leaves(depth int, yield func(int, Expression) bool) bool {
	for _, n := range d {
		if n.Expression != nil {
			if !yield(depth, *n.Expression) {
				return false
			}

			continue
		}

		if !n.Condition.leaves(depth+1, yield) {
			return false
		}
	}

	return true
}

// Depth returns the deepest group nesting level in d.
func (d Dump) Depth() int {
	depth := 0

	for _, n := range d {
		if n.IsGroup() {
			depth = max(depth, 1+n.Condition.Depth())
		}
	}

	return depth
}

// Result is the outcome of [Parse].
type Result struct {
	// Input is the trimmed search string that was parsed.
	Input string `cbor:"-" json:"-" msgpack:"-" yaml:"-"`
	// Parsed holds every node committed before parsing stopped.
	Parsed Dump `cbor:"parsed" json:"parsed" msgpack:"parsed" yaml:"parsed"`
	// Unparsed is the suffix of Input that was not interpreted.
	Unparsed string `cbor:"unparsed" json:"unparsed" msgpack:"unparsed" yaml:"unparsed"`
	// Meta summarizes the accepted leaves.
	Meta Meta `cbor:"meta" json:"meta" msgpack:"meta" yaml:"meta"`
	// Err describes why parsing stopped before the end of Input. It is nil
	// when the whole input was consumed. It is informational only: the
	// Parsed and Unparsed split is always valid.
	Err error `cbor:"-" json:"-" msgpack:"-" yaml:"-"`
}

// Complete reports whether the whole input was parsed.
func (r *Result) Complete() bool { return r.Unparsed == "" }

// Diagnose renders the reason parsing stopped, or returns nil if the input
// was fully parsed.
func (r *Result) Diagnose(radius ...int) *Diagnostic {
	if r.Err == nil {
		return nil
	}

	return WrapError(r.Err).Diagnose(r.Input, radius...)
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	c := *r
	c.Parsed = r.Parsed.Clone()
	c.Meta = r.Meta.Clone()

	return &c
}
