package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Item is a decoded attribute map, e.g. the Keys, NewImage or OldImage of a change record,
// with attribute names as keys and native Go values as values.
//
// Possible value types are string, float64 (or Number), bool, nil, []byte, []any,
// map[string]any and *Set (or []any if sets are flattened).
type Item map[string]any

// SetType is the member type of a DynamoDB set attribute.
type SetType string

const (
	SetTypeString SetType = "String"
	SetTypeNumber SetType = "Number"
	SetTypeBinary SetType = "Binary"
)

// Set is the native representation of the DynamoDB set types (SS, NS, BS).
// Values keep the member order as found on the wire, which is not defined by the store.
type Set struct {
	Type   SetType
	Values []any
}

func NewSet(setType SetType, values []any) *Set {
	return &Set{Type: setType, Values: values}
}

func (s *Set) Len() int {
	return len(s.Values)
}

// MarshalJSON writes the set in wrapped form, keeping the set type visible in the output.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		WrapperName string  `json:"wrapperName"`
		Type        SetType `json:"type"`
		Values      []any   `json:"values"`
	}{
		WrapperName: "Set",
		Type:        s.Type,
		Values:      s.Values,
	})
}

// Number is a DynamoDB number kept in its exact string form.
type Number string

func (n Number) String() string {
	return string(n)
}

func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// MarshalJSON writes the number as a JSON number without any precision loss.
func (n Number) MarshalJSON() ([]byte, error) {
	if !json.Valid([]byte(n)) {
		return nil, fmt.Errorf("invalid number: %q", string(n))
	}
	return []byte(n), nil
}
