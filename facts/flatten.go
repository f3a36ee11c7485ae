package facts

import (
	"encoding/json"
	"sort"
)

// ModifiedFactKey is the reserved top-level key carrying a host's
// last-modified timestamp. It is snapshot metadata, not a fact, and is
// always excluded from flattening.
const ModifiedFactKey = "facts_modified"

// Pair is one flattened leaf: the dot-joined path from the root of a host's
// fact object and the display value found there.
type Pair struct {
	Path  string
	Value Value
}

// Flatten converts one host's nested fact object into its leaf pairs.
// Nested plain objects are recursed into with keys dot-joined; arrays are
// leaves (serialized to JSON text), as is any other non-object value. Keys
// at each level are visited in sorted order so flattening is deterministic
// across runs despite Go's randomized map iteration.
//
// A host with zero leaves (after excluding ModifiedFactKey) yields an empty
// slice; synthesizing the sentinel row for such hosts is the row builder's
// job, not the flattener's.
func Flatten(obj map[string]any) []Pair {
	return flattenInto(nil, "", obj, true)
}

func flattenInto(out []Pair, prefix string, obj map[string]any, top bool) []Pair {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if top && k == ModifiedFactKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := obj[k].(type) {
		case map[string]any:
			out = flattenInto(out, path, v, false)
		case []any:
			text, err := json.Marshal(v)
			if err != nil {
				text = []byte("[]")
			}
			out = append(out, Pair{Path: path, Value: JSON(string(text))})
		default:
			out = append(out, Pair{Path: path, Value: FromAny(v)})
		}
	}
	return out
}
