// Package codec converts DynamoDB tagged attribute values, as found in the Keys, NewImage
// and OldImage fields of change records, into native Go values.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/zpiroux/dynastream/entity"
)

var ErrMalformedValue = errors.New("malformed attribute value")

// Decoder is the default istream.Decoder implementation (stateless).
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeAttributes converts the tagged attribute map into an Item. A nil map is regarded as absent and
// returns nil, nil. Unless opts.WrapSets is set, set attributes on the top level of the item
// are flattened into []any slices, while sets nested inside lists or maps are kept as *Set.
func (d *Decoder) DecodeAttributes(tagged map[string]events.DynamoDBAttributeValue, opts entity.DecodeOptions) (entity.Item, error) {
	if tagged == nil {
		return nil, nil
	}

	item := make(entity.Item, len(tagged))
	for name, av := range tagged {
		value, err := decodeAttribute(av, opts)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		item[name] = value
	}

	if !opts.WrapSets {
		flattenSets(item)
	}
	return item, nil
}

// Decode decodes a raw JSON tagged attribute map. Empty input and JSON null are
// regarded as absent.
func (d *Decoder) Decode(raw []byte, opts entity.DecodeOptions) (entity.Item, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tagged map[string]events.DynamoDBAttributeValue
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	return d.DecodeAttributes(tagged, opts)
}

func flattenSets(item entity.Item) {
	for name, value := range item {
		if set, ok := value.(*entity.Set); ok {
			item[name] = set.Values
		}
	}
}

// decodeAttribute turns accessor panics (e.g. from zero value attributes not created by
// unmarshalling) into errors.
func decodeAttribute(av events.DynamoDBAttributeValue, opts entity.DecodeOptions) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMalformedValue, r)
		}
	}()
	return decodeValue(av, opts)
}

func decodeValue(av events.DynamoDBAttributeValue, opts entity.DecodeOptions) (any, error) {

	switch av.DataType() {
	case events.DataTypeNull:
		return nil, nil
	case events.DataTypeString:
		if opts.ConvertEmptyValues && av.String() == "" {
			return nil, nil
		}
		return av.String(), nil
	case events.DataTypeNumber:
		return decodeNumber(av.Number(), opts)
	case events.DataTypeBoolean:
		return av.Boolean(), nil
	case events.DataTypeBinary:
		if opts.ConvertEmptyValues && len(av.Binary()) == 0 {
			return nil, nil
		}
		return av.Binary(), nil
	case events.DataTypeList:
		return decodeList(av.List(), opts)
	case events.DataTypeMap:
		return decodeMap(av.Map(), opts)
	case events.DataTypeStringSet:
		values := make([]any, 0, len(av.StringSet()))
		for _, s := range av.StringSet() {
			values = append(values, s)
		}
		return entity.NewSet(entity.SetTypeString, values), nil
	case events.DataTypeNumberSet:
		values := make([]any, 0, len(av.NumberSet()))
		for _, n := range av.NumberSet() {
			value, err := decodeNumber(n, opts)
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		return entity.NewSet(entity.SetTypeNumber, values), nil
	case events.DataTypeBinarySet:
		values := make([]any, 0, len(av.BinarySet()))
		for _, b := range av.BinarySet() {
			values = append(values, b)
		}
		return entity.NewSet(entity.SetTypeBinary, values), nil
	default:
		return nil, fmt.Errorf("%w: unsupported data type %v", ErrMalformedValue, av.DataType())
	}
}

// decodeNumber rejects NaN and infinite values, which have no JSON representation.
func decodeNumber(n string, opts entity.DecodeOptions) (any, error) {
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: invalid number %q", ErrMalformedValue, n)
	}
	if opts.WrapNumbers {
		return entity.Number(n), nil
	}
	return f, nil
}

func decodeList(list []events.DynamoDBAttributeValue, opts entity.DecodeOptions) ([]any, error) {
	values := make([]any, 0, len(list))
	for i, av := range list {
		value, err := decodeValue(av, opts)
		if err != nil {
			return nil, fmt.Errorf("list index %d: %w", i, err)
		}
		values = append(values, value)
	}
	return values, nil
}

func decodeMap(m map[string]events.DynamoDBAttributeValue, opts entity.DecodeOptions) (map[string]any, error) {
	values := make(map[string]any, len(m))
	for name, av := range m {
		value, err := decodeValue(av, opts)
		if err != nil {
			return nil, fmt.Errorf("map key %q: %w", name, err)
		}
		values[name] = value
	}
	return values, nil
}
