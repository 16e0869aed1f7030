package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// EmptyCell is the marker written for an absent value in tabular output.
const EmptyCell = ""

// Value is a float64 that may be absent. The zero Value is absent, so "no
// data" never collapses into a measured zero.
type Value struct {
	V     float64
	Valid bool
}

// Some returns a present Value. NaN and infinities are absent.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, Valid: true}
}

// Get returns the float and whether it is present.
func (v Value) Get() (float64, bool) {
	return v.V, v.Valid
}

func (v Value) String() string {
	if !v.Valid {
		return EmptyCell
	}
	return strconv.FormatFloat(v.V, 'g', -1, 64)
}

// MarshalJSON encodes an absent value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
