package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindList
	KindDimension
)

// Dimension is a width/height pair entered for dimension attributes.
type Dimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Value is a single configuration entry. Exactly one field is meaningful, selected by Kind.
type Value struct {
	Kind      Kind
	Text      string
	Number    float64
	Bool      bool
	List      []string
	Dimension Dimension
}

func Text(s string) Value        { return Value{Kind: KindText, Text: s} }
func Number(n float64) Value     { return Value{Kind: KindNumber, Number: n} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func List(items ...string) Value { return Value{Kind: KindList, List: items} }

func Dim(width, height float64) Value {
	return Value{Kind: KindDimension, Dimension: Dimension{Width: width, Height: height}}
}

// Equal reports whether v and other hold the same kind and content.
// There is no coercion between kinds: Text("5") never equals Number(5).
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindText:
		return v.Text == other.Text
	case KindNumber:
		return v.Number == other.Number
	case KindBool:
		return v.Bool == other.Bool
	case KindList:
		return slices.Equal(v.List, other.List)
	case KindDimension:
		return v.Dimension == other.Dimension
	}
	return false
}

// IsEmpty reports whether the value counts as "not filled in".
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindText:
		return v.Text == ""
	case KindList:
		return len(v.List) == 0
	}
	return false
}

// Float returns the numeric reading of the value. Text is accepted when it parses as a
// number. NaN and infinities are never returned.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.Kind {
	case KindNumber:
		f = v.Number
	case KindText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// MatchesOption reports whether the value selects the given option value literally.
// A list selects every option it contains.
func (v Value) MatchesOption(optionValue string) bool {
	switch v.Kind {
	case KindText:
		return v.Text == optionValue
	case KindList:
		return slices.Contains(v.List, optionValue)
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		return strings.Join(v.List, ", ")
	case KindDimension:
		return strconv.FormatFloat(v.Dimension.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(v.Dimension.Height, 'f', -1, 64)
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindDimension:
		return json.Marshal(v.Dimension)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty configuration value")
	}

	switch data[0] {
	case 'n':
		*v = Value{Kind: KindNull}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			item = bytes.TrimSpace(item)
			var s string
			if len(item) == 0 || item[0] != '"' {
				return fmt.Errorf("list items must be strings, got %s", item)
			}
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			items = append(items, s)
		}
		*v = List(items...)
		return nil
	case '{':
		var d struct {
			Width  *float64 `json:"width"`
			Height *float64 `json:"height"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		if d.Width == nil || d.Height == nil {
			return fmt.Errorf("dimension value requires width and height")
		}
		*v = Dim(*d.Width, *d.Height)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported configuration value %s", data)
	}
	*v = Number(n)
	return nil
}

// Configuration maps lower-cased attribute names to selected values.
// Keys that match no attribute are kept so they echo back to the caller.
type Configuration map[string]Value

// Lookup returns the value selected for attr.
func (c Configuration) Lookup(attr Attribute) (Value, bool) {
	v, ok := c[attr.Key()]
	return v, ok
}

// Clone returns a shallow copy safe to hand to another owner.
func (c Configuration) Clone() Configuration {
	if c == nil {
		return Configuration{}
	}
	out := make(Configuration, len(c))
	for k, v := range c {
		if v.Kind == KindList {
			v.List = slices.Clone(v.List)
		}
		out[k] = v
	}
	return out
}
