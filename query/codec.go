package query

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoding names a serialization of parse results.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingYAML    Encoding = "yaml"
	EncodingCBOR    Encoding = "cbor"
	EncodingMsgPack Encoding = "msgpack"
)

// Encodings lists every supported [Encoding].
var Encodings = []Encoding{EncodingJSON, EncodingYAML, EncodingCBOR, EncodingMsgPack}

// ErrEncoding is returned for an unknown [Encoding] or a codec failure.
var ErrEncoding = NewError("encoding error")

// Binary reports whether e produces non-text output.
func (e Encoding) Binary() bool {
	return e == EncodingCBOR || e == EncodingMsgPack
}

// ParseEncoding returns the [Encoding] named by s (case-insensitive).
func ParseEncoding(s string) (Encoding, error) {
	e := Encoding(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Encodings, e) {
		return "", ErrEncoding.With(slog.String("encoding", s))
	}

	return e, nil
}

//nolint:gochecknoglobals
var (
	cborEnc = mustEncMode()
	cborDec = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}

	return dm
}

// Marshal serializes v, typically a [*Result], [Dump], or [Meta].
// Text encodings are indented by indent spaces when indent is positive and
// compact otherwise. CBOR output is canonical (deterministic).
func Marshal(ctx context.Context, v any, enc Encoding, indent int) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch enc {
	case EncodingJSON:
		if indent > 0 {
			data, err = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
		} else {
			data, err = json.Marshal(v)
		}

	case EncodingYAML:
		opts := []yaml.EncodeOption{yaml.Flow(true)}
		if indent > 0 {
			opts = []yaml.EncodeOption{yaml.Indent(indent), yaml.IndentSequence(true)}
		}

		data, err = yaml.MarshalContext(ctx, v, opts...)

	case EncodingCBOR:
		data, err = cborEnc.Marshal(v)

	case EncodingMsgPack:
		data, err = msgpack.Marshal(v)

	default:
		return nil, ErrEncoding.With(slog.String("encoding", string(enc)))
	}

	if err != nil {
		return nil, ErrEncoding.Wrap(err).With(slog.String("encoding", string(enc)))
	}

	return data, nil
}

// Unmarshal decodes data into v.
func Unmarshal(ctx context.Context, data []byte, v any, enc Encoding) error {
	var err error

	switch enc {
	case EncodingJSON:
		err = json.Unmarshal(data, v)

	case EncodingYAML:
		err = yaml.UnmarshalContext(ctx, data, v)

	case EncodingCBOR:
		err = cborDec.Unmarshal(data, v)

	case EncodingMsgPack:
		err = msgpack.Unmarshal(data, v)

	default:
		return ErrEncoding.With(slog.String("encoding", string(enc)))
	}

	if err != nil {
		return WrapError(err).With(slog.String("encoding", string(enc)))
	}

	return nil
}

// DecodeDump decodes and validates a serialized condition tree, given either
// as a bare node list or as an encoded [Result]. The document must match
// [Schema] before it is converted to a [Dump].
func DecodeDump(ctx context.Context, data []byte, enc Encoding) (Dump, error) {
	var doc any
	if err := Unmarshal(ctx, data, &doc, enc); err != nil {
		return nil, err
	}

	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	var d Dump

	if _, ok := doc.(map[string]any); ok {
		var r Result
		if err := Unmarshal(ctx, data, &r, enc); err != nil {
			return nil, err
		}

		d = r.Parsed
	} else if err := Unmarshal(ctx, data, &d, enc); err != nil {
		return nil, err
	}

	if d == nil {
		d = Dump{}
	}

	return d, nil
}

// wireNode is the serialized form of a [Node]. Condition is a pointer so
// that an empty group still encodes its (empty) condition list.
type wireNode struct {
	Operator   Join        `cbor:"operator"             json:"operator"             msgpack:"operator"             yaml:"operator"`
	Expression *Expression `cbor:"expression,omitempty" json:"expression,omitempty" msgpack:"expression,omitempty" yaml:"expression,omitempty"`
	Condition  *Dump       `cbor:"condition,omitempty"  json:"condition,omitempty"  msgpack:"condition,omitempty"  yaml:"condition,omitempty"`
}

func (n *Node) wire() wireNode {
	w := wireNode{Operator: n.Operator, Expression: n.Expression}

	if n.Expression == nil {
		cond := n.Condition
		if cond == nil {
			cond = Dump{}
		}

		w.Condition = &cond
	}

	return w
}

func (n *Node) fromWire(w wireNode) error {
	if !w.Operator.Valid() {
		return ErrInvalidJoin.With(slog.String("operator", string(w.Operator)))
	}

	if (w.Expression == nil) == (w.Condition == nil) {
		return ErrInvalidNode.With(
			slog.Bool("expression", w.Expression != nil),
			slog.Bool("condition", w.Condition != nil))
	}

	*n = Node{Operator: w.Operator, Expression: w.Expression}

	if w.Condition != nil {
		n.Condition = *w.Condition
		if n.Condition == nil {
			n.Condition = Dump{}
		}
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) { return json.Marshal(n.wire()) }

// UnmarshalJSON implements json.Unmarshaler. It rejects nodes that carry
// both or neither of an expression and a condition.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&w); err != nil {
		return err
	}

	return n.fromWire(w)
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (n *Node) MarshalYAML() (any, error) { return n.wire(), nil }

// UnmarshalYAML implements yaml.InterfaceUnmarshaler.
func (n *Node) UnmarshalYAML(unmarshal func(any) error) error {
	var w wireNode
	if err := unmarshal(&w); err != nil {
		return err
	}

	return n.fromWire(w)
}

// MarshalCBOR implements cbor.Marshaler.
func (n *Node) MarshalCBOR() ([]byte, error) { return cborEnc.Marshal(n.wire()) }

// UnmarshalCBOR implements cbor.Unmarshaler.
func (n *Node) UnmarshalCBOR(data []byte) error {
	var w wireNode
	if err := cborDec.Unmarshal(data, &w); err != nil {
		return err
	}

	return n.fromWire(w)
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (n *Node) EncodeMsgpack(enc *msgpack.Encoder) error { return enc.Encode(n.wire()) }

// DecodeMsgpack implements msgpack.CustomDecoder.
func (n *Node) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireNode
	if err := dec.Decode(&w); err != nil {
		return err
	}

	return n.fromWire(w)
}
