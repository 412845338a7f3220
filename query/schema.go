package query

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is the JSON Schema (draft 2020-12) describing a serialized
// condition tree, either bare or as the "parsed" member of a result.
//
//go:embed schema.json
var Schema string

const schemaURL = "https://github.com/ardnew/qsplit/schema/condition.json"

//nolint:gochecknoglobals
var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(schemaURL, strings.NewReader(Schema)); err != nil {
		return nil, err
	}

	return compiler.Compile(schemaURL)
})

// ValidateDocument checks a decoded document (as produced by unmarshalling
// into an empty interface with any supported [Encoding]) against [Schema].
func ValidateDocument(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return ErrSchema.Wrap(err)
	}

	// Normalize to the JSON data model the validator expects.
	data, err := json.Marshal(doc)
	if err != nil {
		return ErrSchema.Wrap(err)
	}

	var norm any

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&norm); err != nil {
		return ErrSchema.Wrap(err)
	}

	if err := schema.Validate(norm); err != nil {
		return ErrSchema.Wrap(err)
	}

	return nil
}

// Validate checks that d serializes to a document matching [Schema].
func (d Dump) Validate() error {
	if d == nil {
		d = Dump{}
	}

	data, err := json.Marshal(d)
	if err != nil {
		return ErrSchema.Wrap(err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return ErrSchema.Wrap(err)
	}

	return ValidateDocument(doc)
}
