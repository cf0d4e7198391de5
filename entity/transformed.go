package entity

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// PayloadField is the name of the change payload field in a change event record.
const PayloadField = "dynamodb"

// Payload keys, as used in both input and output payloads
const (
	PayloadKeys     = "Keys"
	PayloadNewImage = "NewImage"
	PayloadOldImage = "OldImage"
	PayloadDiff     = "Diff"
)

// Payload is the transformed change payload. Only fields that were actually produced are set.
// A nil Item (or nil Diff) means the field is absent and it will be left out of the JSON output.
// Note that an empty but non-nil value is regarded as produced.
type Payload struct {
	Keys     Item
	NewImage Item
	OldImage Item
	Diff     any
}

func (p *Payload) HasDiff() bool {
	return p.Diff != nil
}

// MarshalJSON writes an object holding only the produced fields.
func (p *Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4)
	if p.Keys != nil {
		out[PayloadKeys] = p.Keys
	}
	if p.NewImage != nil {
		out[PayloadNewImage] = p.NewImage
	}
	if p.OldImage != nil {
		out[PayloadOldImage] = p.OldImage
	}
	if p.Diff != nil {
		out[PayloadDiff] = p.Diff
	}
	return json.Marshal(out)
}

// TransformedRecord is the result of transforming a single change event record.
// The original record is kept untouched; its payload is replaced with Payload when
// the record is marshalled.
type TransformedRecord struct {
	Record  []byte
	Payload *Payload
}

func NewTransformedRecord(record []byte) *TransformedRecord {
	return &TransformedRecord{
		Record:  record,
		Payload: &Payload{},
	}
}

// Get returns the value of an envelope field (e.g. "eventName" or "eventID") from the
// original record, using GJSON path syntax. See https://github.com/tidwall/gjson.
func (r *TransformedRecord) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Record, path)
}

// MarshalJSON returns the original record with its payload field replaced by the
// transformed payload.
func (r *TransformedRecord) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, err
	}
	record := make([]byte, len(r.Record))
	copy(record, r.Record)
	return sjson.SetRawBytes(record, PayloadField, payload)
}

func (r *TransformedRecord) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("ERROR: could not marshal transformed record: %v", err)
	}
	return string(b)
}

// Output holds the result of transforming raw JSON input, which either was a single
// record (JSON object) or a batch of records (JSON array). It marshals back into the
// same shape as the input.
type Output struct {
	Single *TransformedRecord
	Batch  []*TransformedRecord
}

func (o *Output) IsBatch() bool {
	return o.Single == nil
}

// Records returns the transformed records, regardless of input shape.
func (o *Output) Records() []*TransformedRecord {
	if o.IsBatch() {
		return o.Batch
	}
	return []*TransformedRecord{o.Single}
}

func (o *Output) MarshalJSON() ([]byte, error) {
	if o.IsBatch() {
		if o.Batch == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(o.Batch)
	}
	return json.Marshal(o.Single)
}

// String returns a compact, type annotated representation of the item, mainly for logging.
func (i Item) String() string {

	keys := make([]string, 0, len(i))
	for key := range i {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var strOut = "{ "
	for j, key := range keys {
		if j > 0 {
			strOut += ", "
		}
		var str string
		switch value := i[key].(type) {
		case nil:
			str = "null"
		case bool:
			str = fmt.Sprintf("%v (bool)", value)
		case float64:
			str = fmt.Sprintf("%v (float64)", value)
		case Number:
			str = fmt.Sprintf("%s (Number)", value)
		case string:
			str = fmt.Sprintf("%s (string)", value)
		case []byte:
			str = fmt.Sprintf("%s ([]byte)", string(value))
		case *Set:
			str = fmt.Sprintf("%v (%s Set)", value.Values, value.Type)
		case []any:
			str = fmt.Sprintf("%v ([]any)", value)
		case map[string]any:
			str = fmt.Sprintf("%v (map[string]any)", value)
		default:
			str = fmt.Sprintf("ERROR: unhandled type (%T) in Item.String()", value)
		}
		strOut += fmt.Sprintf("\"%s\": \"%s\"", key, str)
	}
	return strOut + " }"
}
