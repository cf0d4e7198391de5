package transform

import (
	"context"
	"errors"

	"github.com/teltech/logger"
	"github.com/tidwall/gjson"
	"github.com/zpiroux/dynastream/entity"
	"github.com/zpiroux/dynastream/internal/pkg/istream"
)

var log *logger.Log

func init() {
	log = logger.New()
}

var (
	ErrMissingPayload = errors.New("record is missing dynamodb property")
	ErrInvalidRecord  = errors.New("record is not valid JSON")
)

// Default Transformer implementation (stateless, immutable).
// It decodes the Keys, NewImage and OldImage of a change record and, if a diff mode is
// set in the spec, adds the diff between OldImage and NewImage.
type Transformer struct {
	spec    *entity.Spec
	decoder istream.Decoder
	differ  istream.Differ
}

func NewTransformer(spec *entity.Spec, decoder istream.Decoder, differ istream.Differ) *Transformer {
	return &Transformer{
		spec:    spec,
		decoder: decoder,
		differ:  differ,
	}
}

// Transform returns a new TransformedRecord, with the original record as envelope and a payload
// holding only the fields that were present (non-empty) in the record's change payload, decoded,
// plus the Diff if applicable.
// The Diff is only computed if the spec has a diff mode set and the record has both a NewImage
// and an OldImage.
// Errors from the decoder or differ are returned as is.
func (t *Transformer) Transform(ctx context.Context, record []byte) (*entity.TransformedRecord, error) {

	if !gjson.ValidBytes(record) {
		return nil, ErrInvalidRecord
	}

	payload := gjson.GetBytes(record, entity.PayloadField)
	if !truthy(payload) {
		return nil, ErrMissingPayload
	}

	var (
		transformed = entity.NewTransformedRecord(record)
		out         = transformed.Payload
		hasNew      bool
		hasOld      bool
		err         error
	)

	if out.Keys, _, err = t.decode(payload, entity.PayloadKeys); err != nil {
		return nil, err
	}
	if out.NewImage, hasNew, err = t.decode(payload, entity.PayloadNewImage); err != nil {
		return nil, err
	}
	if out.OldImage, hasOld, err = t.decode(payload, entity.PayloadOldImage); err != nil {
		return nil, err
	}

	if t.spec.DiffMode.Enabled() && hasNew && hasOld {
		if out.Diff, err = t.differ.Diff(out.OldImage, out.NewImage, t.spec.DiffMode); err != nil {
			return nil, err
		}
	}

	log.Debugf("transformed record with eventID '%s', keys: %s, diff included: %v",
		transformed.Get("eventID").String(), out.Keys.String(), out.HasDiff())

	return transformed, nil
}

// decode reports present as false, and skips decoding, if the field is absent in the
// payload, i.e. not truthy.
func (t *Transformer) decode(payload gjson.Result, field string) (item entity.Item, present bool, err error) {
	value := payload.Get(field)
	if !truthy(value) {
		return nil, false, nil
	}
	item, err = t.decoder.Decode([]byte(value.Raw), t.spec.Options)
	return item, true, err
}

// truthy regards non-existing fields, null, false, 0 and "" as absent. Objects and arrays are
// always present, even if empty.
func truthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return value.Num != 0
	case gjson.String:
		return value.Str != ""
	default:
		return value.Exists()
	}
}
