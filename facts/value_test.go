package facts

import (
	"encoding/json"
	"testing"
)

func TestValueCoercions(t *testing.T) {
	tests := []struct {
		v       Value
		str     string
		num     float64
		numOK   bool
	}{
		{String("Ubuntu"), "Ubuntu", 0, false},
		{String("42.5"), "42.5", 42.5, true},
		{Number(8), "8", 8, true},
		{Number(2.5), "2.5", 2.5, true},
		{Bool(true), "true", 1, true},
		{Bool(false), "false", 0, true},
		{Null(), "null", 0, false},
		{JSON(`["a","b"]`), `["a","b"]`, 0, false},
	}
	for _, tt := range tests {
		if got := tt.v.ComparableString(); got != tt.str {
			t.Errorf("ComparableString(%v) = %q, want %q", tt.v, got, tt.str)
		}
		n, ok := tt.v.ComparableNumber()
		if ok != tt.numOK || (ok && n != tt.num) {
			t.Errorf("ComparableNumber(%v) = %v,%v, want %v,%v", tt.v, n, ok, tt.num, tt.numOK)
		}
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	in := map[string]Value{
		"s": String("x"),
		"n": Number(3),
		"b": Bool(true),
		"z": Null(),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]Value
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	for k, v := range in {
		if out[k].ComparableString() != v.ComparableString() {
			t.Errorf("%s: %q != %q", k, out[k].ComparableString(), v.ComparableString())
		}
	}
}
