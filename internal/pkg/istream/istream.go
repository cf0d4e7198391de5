// Package istream holds the interfaces of the record processing pipeline, making it possible
// to inject other implementations (or fakes in tests) of the decoder and differ.
package istream

import (
	"context"

	"github.com/zpiroux/dynastream/entity"
)

// Decoder converts tagged attribute values into native values.
type Decoder interface {
	// Decode converts a raw JSON tagged attribute map (e.g. a NewImage) into an Item.
	// It returns nil, nil if there is no attribute map to decode (empty input or JSON null).
	Decode(tagged []byte, opts entity.DecodeOptions) (entity.Item, error)
}

// Differ computes a structural difference between two decoded items.
type Differ interface {
	Diff(oldItem, newItem entity.Item, mode entity.DiffMode) (any, error)
}

// Transformer interface required for record transformer implementations
type Transformer interface {
	// Transform transforms a single change event record, provided as raw JSON.
	// The input record is never modified.
	Transform(ctx context.Context, record []byte) (*entity.TransformedRecord, error)
}
