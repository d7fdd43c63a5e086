package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldType is the JSON type a mutable attribute accepts.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeNumber FieldType = "number"
	FieldTypeBool   FieldType = "bool"
	FieldTypeObject FieldType = "object"
	FieldTypeList   FieldType = "list"
)

// FieldSet is an allow-list of attribute names a caller may assign through a
// single-field update, mapped to the value type each accepts.
type FieldSet map[string]FieldType

// Names returns the allowed attribute names in sorted order.
func (fs FieldSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateUpdate checks an update-field request against the allow-list.
// Unknown attributes are rejected, so callers cannot inject arbitrary
// attribute paths. Returns a *ValidationError on failure.
func (fs FieldSet) ValidateUpdate(key string, value any) error {
	var ve ValidationError
	if key == "" {
		ve.Add("updateKey", "is required")
	}
	if value == nil {
		ve.Add("updateValue", "is required")
	}
	if ve.HasErrors() {
		return &ve
	}

	typ, ok := fs[key]
	if !ok {
		ve.Add("updateKey", fmt.Sprintf("%q is not an updatable field", key))
		return &ve
	}
	if err := checkType(typ, value); err != nil {
		ve.Add("updateValue", err.Error())
		return &ve
	}
	return nil
}

func checkType(typ FieldType, val any) error {
	switch typ {
	case FieldTypeString:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		if !IsPresent(s) {
			return fmt.Errorf("must not be empty")
		}
	case FieldTypeNumber:
		switch val.(type) {
		case json.Number, float64, int, int64:
		default:
			return fmt.Errorf("must be a number")
		}
	case FieldTypeBool:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("must be a boolean")
		}
	case FieldTypeObject:
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("must be an object")
		}
	case FieldTypeList:
		if _, ok := val.([]any); !ok {
			return fmt.Errorf("must be a list")
		}
	default:
		return fmt.Errorf("unsupported field type %q", typ)
	}
	return nil
}
