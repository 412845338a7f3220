package query

import "slices"

// Meta summarizes the leaves accepted during a parse. Each list holds
// distinct entries in order of first occurrence.
type Meta struct {
	Keys        []string     `cbor:"keys"        json:"keys"        msgpack:"keys" yaml:"keys"`
	Operators   []string     `cbor:"operators"   json:"operators"   msgpack:"operators" yaml:"operators"`
	Values      []string     `cbor:"values"      json:"values"      msgpack:"values" yaml:"values"`
	Expressions []Expression `cbor:"expressions" json:"expressions" msgpack:"expressions" yaml:"expressions"`
}

// MetaOf builds the metadata of an existing condition tree.
func MetaOf(d Dump) Meta {
	var acc accumulator

	for _, e := range d.Leaves() {
		acc.record(e)
	}

	return acc.meta()
}

// Clone returns a deep copy of m.
func (m Meta) Clone() Meta {
	return Meta{
		Keys:        slices.Clone(m.Keys),
		Operators:   slices.Clone(m.Operators),
		Values:      slices.Clone(m.Values),
		Expressions: slices.Clone(m.Expressions),
	}
}

// ordered is an insertion-ordered set that can be rolled back to an earlier
// length.
type ordered[T comparable] struct {
	seen map[T]struct{}
	list []T
}

func (o *ordered[T]) add(v T) {
	if _, ok := o.seen[v]; ok {
		return
	}

	if o.seen == nil {
		o.seen = make(map[T]struct{})
	}

	o.seen[v] = struct{}{}
	o.list = append(o.list, v)
}

func (o *ordered[T]) truncate(n int) {
	for _, v := range o.list[n:] {
		delete(o.seen, v)
	}

	o.list = o.list[:n]
}

// values returns the entries as a non-nil slice.
func (o *ordered[T]) values() []T {
	return append(make([]T, 0, len(o.list)), o.list...)
}

// accumulator collects the distinct keys, operators, values, and
// expressions seen during one parse.
type accumulator struct {
	keys, operators, values ordered[string]
	expressions             ordered[Expression]
}

// snapshot records the accumulator sizes for a later restore.
type snapshot [4]int

func (a *accumulator) record(e Expression) {
	a.keys.add(e.Key)
	a.operators.add(e.Operator)
	a.values.add(e.Value)
	a.expressions.add(e)
}

func (a *accumulator) snapshot() snapshot {
	return snapshot{
		len(a.keys.list),
		len(a.operators.list),
		len(a.values.list),
		len(a.expressions.list),
	}
}

// restore forgets every entry first seen after s was taken.
func (a *accumulator) restore(s snapshot) {
	a.keys.truncate(s[0])
	a.operators.truncate(s[1])
	a.values.truncate(s[2])
	a.expressions.truncate(s[3])
}

func (a *accumulator) meta() Meta {
	return Meta{
		Keys:        a.keys.values(),
		Operators:   a.operators.values(),
		Values:      a.values.values(),
		Expressions: a.expressions.values(),
	}
}
