// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds the size of files handed to ParseAndDecode.
const DefaultMaxFileSize int64 = 1 << 20

type (
	// ParseResult holds the decoded value and the unified CUE value.
	ParseResult[T any] struct {
		Value   *T
		Unified cue.Value
	}

	// Option customizes ParseAndDecode.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int64
		concrete    bool
	}
)

// WithFilename names the input in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(o *options) { o.maxFileSize = n }
}

// WithConcrete requires every field to be concrete after unification.
// Configuration files leave it off since all their fields are optional.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// ParseAndDecode compiles schema, unifies data with the definition at
// schemaPath (for example "#Config"), validates and decodes into T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	o := options{filename: "<input>", maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), o.filename)
	}

	root := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}
