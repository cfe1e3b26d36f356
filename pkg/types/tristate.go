package types

import (
	"bytes"
	"fmt"
)

// TriState is a three-value flag: unset, true, or false. On the wire it is a
// nullable boolean (null when unset); backends store it as a nullable integer.
type TriState int

const (
	TriUnset TriState = iota
	TriTrue
	TriFalse
)

// IsValid reports whether t is one of the three defined values.
func (t TriState) IsValid() bool {
	return t == TriUnset || t == TriTrue || t == TriFalse
}

// Bool returns nil for unset, otherwise a pointer to the boolean value.
func (t TriState) Bool() *bool {
	switch t {
	case TriTrue:
		v := true
		return &v
	case TriFalse:
		v := false
		return &v
	default:
		return nil
	}
}

// TriFromBool converts a nullable boolean to a TriState.
func TriFromBool(b *bool) TriState {
	switch {
	case b == nil:
		return TriUnset
	case *b:
		return TriTrue
	default:
		return TriFalse
	}
}

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unset"
	}
}

var jsonNull = []byte("null")

// MarshalJSON encodes unset as null, otherwise as a plain boolean.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case TriTrue:
		return []byte("true"), nil
	case TriFalse:
		return []byte("false"), nil
	default:
		return jsonNull, nil
	}
}

// UnmarshalJSON decodes null as unset and booleans as their TriState value.
func (t *TriState) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, jsonNull):
		*t = TriUnset
	case bytes.Equal(data, []byte("true")):
		*t = TriTrue
	case bytes.Equal(data, []byte("false")):
		*t = TriFalse
	default:
		return fmt.Errorf("invalid tri-state value %q", data)
	}
	return nil
}
