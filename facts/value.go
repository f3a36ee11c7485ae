// Package facts implements the fact-search engine: flattening per-host
// inventory JSON into a uniform row model, evaluating filter terms against
// it, and projecting the filtered rows into list and pivot views.
//
// The engine is pure: every function takes its full input explicitly and
// never performs I/O, so the same code runs identically on a request
// goroutine or offloaded to a background filter worker.
package facts

import (
	"encoding/json"
	"strconv"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNull
	KindJSON // arrays and objects collapsed at a leaf boundary, kept as JSON text
)

// Value is the display value of a fact leaf. Inventory facts are duck-typed
// (string, number, boolean, null, or nested structure), so the engine keeps
// them as a tagged union with explicit coercions instead of relying on
// interface{} comparisons. The matcher and sort engine only ever see the
// ComparableString / ComparableNumber views.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null constructs the null Value.
func Null() Value { return Value{kind: KindNull} }

// JSON constructs a Value holding pre-serialized JSON text, used for arrays
// and objects that terminate a fact path.
func JSON(text string) Value { return Value{kind: KindJSON, str: text} }

// FromAny converts a value decoded by encoding/json into a Value. Maps and
// slices are re-serialized to JSON text; anything unrecognized falls back to
// its JSON representation as well.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case bool:
		return Bool(t)
	case json.Number:
		if n, err := t.Float64(); err == nil {
			return Number(n)
		}
		return String(t.String())
	default:
		text, err := json.Marshal(v)
		if err != nil {
			return String("")
		}
		return JSON(string(text))
	}
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// ComparableString returns the display text the matcher and sort engine
// compare against. Numbers render without a trailing ".0" for integral
// values so "8" written as JSON 8 matches the filter value "8".
func (v Value) ComparableString() string {
	switch v.kind {
	case KindString, KindJSON:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return "null"
	}
}

// ComparableNumber returns the numeric view of v for relational operators.
// The second return is false when v has no numeric interpretation.
func (v Value) ComparableNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		n, err := strconv.ParseFloat(v.str, 64)
		return n, err == nil
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// MarshalJSON renders the Value with its original JSON type where possible.
// JSON-collapsed leaves marshal as their serialized text (they are display
// values, not live structures).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString, KindJSON:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON scalar or structure, mirroring FromAny.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
