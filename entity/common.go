package entity

import (
	"encoding/json"
	"fmt"
)

// DiffMode selects which structural diff, if any, is computed between the OldImage and the
// NewImage of a change record.
type DiffMode int

const (
	DiffNone DiffMode = iota
	DiffAdded
	DiffDeleted
	DiffUpdated
	DiffDetailed
	DiffFull
)

var diffModeNames = map[DiffMode]string{
	DiffNone:     "none",
	DiffAdded:    "added",
	DiffDeleted:  "deleted",
	DiffUpdated:  "updated",
	DiffDetailed: "detailed",
	DiffFull:     "full",
}

// ParseDiffMode maps a diff mode name to a DiffMode. Names are matched exactly.
//
//	""                                        -> DiffNone
//	"added", "deleted", "updated", "detailed" -> the corresponding restricted diff
//	anything else (e.g. "true", "full")       -> DiffFull
func ParseDiffMode(name string) DiffMode {
	switch name {
	case "":
		return DiffNone
	case "added":
		return DiffAdded
	case "deleted":
		return DiffDeleted
	case "updated":
		return DiffUpdated
	case "detailed":
		return DiffDetailed
	default:
		return DiffFull
	}
}

// Enabled reports if any diff should be computed.
func (m DiffMode) Enabled() bool {
	return m != DiffNone
}

func (m DiffMode) String() string {
	if name, ok := diffModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("DiffMode(%d)", int(m))
}

// UnmarshalJSON accepts both the boolean form (false: no diff, true: full diff) and
// the string form as handled by ParseDiffMode.
func (m *DiffMode) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*m = DiffNone
		if b {
			*m = DiffFull
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("diff mode must be a boolean or a string, got: %s", string(data))
	}
	*m = ParseDiffMode(s)
	return nil
}

func (m DiffMode) MarshalJSON() ([]byte, error) {
	if m == DiffNone {
		return []byte("false"), nil
	}
	return json.Marshal(m.String())
}

// DecodeOptions control how tagged attribute values are converted into native values.
type DecodeOptions struct {

	// WrapSets keeps string, number and binary set attributes as *Set values. When false (default)
	// top-level set attributes are flattened into plain []any slices of their members.
	WrapSets bool `json:"wrapSets"`

	// WrapNumbers decodes numbers as Number (their exact string form) instead of float64,
	// to avoid losing precision on large or high-precision numbers.
	WrapNumbers bool `json:"wrapNumbers"`

	// ConvertEmptyValues decodes empty strings and empty binary values as nil, i.e. the way
	// they would have been written when empty values are converted to NULL on write.
	// The AWS SDK converters only apply this option when marshalling; applying it on decode
	// is specific to dynastream.
	ConvertEmptyValues bool `json:"convertEmptyValues"`

	// Extra holds any additional, unrecognized options, as provided in a JSON config.
	// They are accepted for config compatibility and otherwise ignored by the decoder.
	Extra map[string]any `json:"-"`
}
