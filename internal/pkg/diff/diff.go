// Package diff computes structural differences between decoded items.
//
// Maps, lists and sets are regarded as containers and are compared key by key, where list
// elements are keyed by their index ("0", "1", ...) and sets by their wrapped form ("type",
// "values", "wrapperName"). All other values are compared as scalars. Keys only present in
// the old value are reported with a nil value in the diffs where deletions are included.
package diff

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/zpiroux/dynastream/entity"
)

var ErrUnsupportedMode = errors.New("unsupported diff mode")

// Keys of the Detailed diff result
const (
	DetailedAdded   = "added"
	DetailedDeleted = "deleted"
	DetailedUpdated = "updated"
)

type strategy func(oldItem, newItem entity.Item) any

var strategies = map[entity.DiffMode]strategy{
	entity.DiffAdded:    func(o, n entity.Item) any { return Added(o, n) },
	entity.DiffDeleted:  func(o, n entity.Item) any { return Deleted(o, n) },
	entity.DiffUpdated:  func(o, n entity.Item) any { return Updated(o, n) },
	entity.DiffDetailed: func(o, n entity.Item) any { return Detailed(o, n) },
	entity.DiffFull:     func(o, n entity.Item) any { return Full(o, n) },
}

// Differ is the default istream.Differ implementation (stateless).
type Differ struct{}

func NewDiffer() *Differ {
	return &Differ{}
}

// Diff dispatches to the diff strategy selected by mode. DiffNone has no strategy.
func (d *Differ) Diff(oldItem, newItem entity.Item, mode entity.DiffMode) (any, error) {
	diffFunc, ok := strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, mode)
	}
	return diffFunc(oldItem, newItem), nil
}

// Added returns what is only present in rhs.
func Added(lhs, rhs any) map[string]any {
	result := make(map[string]any)
	l, lok := keyed(lhs)
	r, rok := keyed(rhs)
	if !lok || !rok {
		return result
	}

	for key, rValue := range r {
		lValue, exists := l[key]
		if !exists {
			result[key] = rValue
			continue
		}
		if d := Added(lValue, rValue); len(d) > 0 {
			result[key] = d
		}
	}
	return result
}

// Deleted returns what is only present in lhs, with nil as value for each deleted key.
func Deleted(lhs, rhs any) map[string]any {
	result := make(map[string]any)
	l, lok := keyed(lhs)
	r, rok := keyed(rhs)
	if !lok || !rok {
		return result
	}

	for key, lValue := range l {
		rValue, exists := r[key]
		if !exists {
			result[key] = nil
			continue
		}
		if d := Deleted(lValue, rValue); len(d) > 0 {
			result[key] = d
		}
	}
	return result
}

// Updated returns the new values of keys present in both lhs and rhs where the value changed.
// If lhs and rhs are not both containers, rhs is returned if they differ.
func Updated(lhs, rhs any) any {
	l, lok := keyed(lhs)
	r, rok := keyed(rhs)
	if !lok || !rok {
		if !lok && !rok && sameScalar(lhs, rhs) {
			return map[string]any{}
		}
		return rhs
	}

	result := make(map[string]any)
	for key, rValue := range r {
		lValue, exists := l[key]
		if !exists {
			continue
		}
		d := Updated(lValue, rValue)
		if isEmptyContainer(d) {
			continue
		}
		result[key] = d
	}
	return result
}

// Detailed returns the added, deleted and updated diffs under their own keys.
func Detailed(lhs, rhs any) map[string]any {
	return map[string]any{
		DetailedAdded:   Added(lhs, rhs),
		DetailedDeleted: Deleted(lhs, rhs),
		DetailedUpdated: Updated(lhs, rhs),
	}
}

// Full returns all differences: added keys with their values, deleted keys with nil and
// changed keys with the (recursive) diff of their values.
// If lhs and rhs are not both containers, rhs is returned if they differ.
func Full(lhs, rhs any) any {
	l, lok := keyed(lhs)
	r, rok := keyed(rhs)
	if !lok || !rok {
		if !lok && !rok && sameScalar(lhs, rhs) {
			return map[string]any{}
		}
		return rhs
	}

	result := make(map[string]any)
	for key := range l {
		if _, exists := r[key]; !exists {
			result[key] = nil
		}
	}

	for key, rValue := range r {
		lValue, exists := l[key]
		if !exists {
			result[key] = rValue
			continue
		}
		d := Full(lValue, rValue)
		// An empty diff means no change, unless an existing non-empty container was
		// replaced by an empty one.
		if isEmptyContainer(d) && (isEmptyContainer(lValue) || !isEmptyContainer(rValue)) {
			continue
		}
		result[key] = d
	}
	return result
}

// keyed returns the key/value view of a container value.
func keyed(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case entity.Item:
		return map[string]any(v), true
	case []any:
		m := make(map[string]any, len(v))
		for i, element := range v {
			m[strconv.Itoa(i)] = element
		}
		return m, true
	case *entity.Set:
		if v == nil {
			return nil, false
		}
		return map[string]any{
			"wrapperName": "Set",
			"type":        string(v.Type),
			"values":      v.Values,
		}, true
	}
	return nil, false
}

func isEmptyContainer(v any) bool {
	m, ok := keyed(v)
	return ok && len(m) == 0
}

func sameScalar(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
