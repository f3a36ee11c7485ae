package facts

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Row sort keys for the list view.
const (
	SortByHost     = "host"
	SortByFactPath = "factPath"
	SortByValue    = "value"
	SortByModified = "modified"
)

// newCollator builds the comparator used for every string column: numeric-
// aware ("10" sorts after "2") and case-insensitive. One collator per sort
// pass; collators are not safe for concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
}

// SortRows returns a new slice of rows ordered by the given key. The sort is
// stable, never mutates its input, and puts rows with an absent value for
// the key last regardless of direction. The modified column compares as
// parsed timestamps, with unparseable timestamps treated as the epoch.
func SortRows(rows []FactRow, key string, desc bool) []FactRow {
	out := make([]FactRow, len(rows))
	copy(out, rows)

	if key == SortByModified {
		sort.SliceStable(out, func(i, j int) bool {
			return orderTimestamps(out[i].Modified, out[j].Modified, desc)
		})
		return out
	}

	col := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		a, aOK := rowField(out[i], key)
		b, bOK := rowField(out[j], key)
		return orderStrings(col, a, aOK, b, bOK, desc)
	})
	return out
}

// SortPivot returns a new slice of pivot records ordered by one column.
// Hosts missing the column sort last regardless of direction.
func SortPivot(records []PivotRecord, key string, desc bool) []PivotRecord {
	out := make([]PivotRecord, len(records))
	copy(out, records)

	col := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		a, aOK := out[i][key]
		b, bOK := out[j][key]
		return orderStrings(col, a.ComparableString(), aOK, b.ComparableString(), bOK, desc)
	})
	return out
}

func rowField(r FactRow, key string) (string, bool) {
	switch key {
	case SortByHost:
		return r.Host, true
	case SortByFactPath:
		return r.FactPath, true
	case SortByValue:
		return r.Value.ComparableString(), true
	default:
		return "", false
	}
}

// orderStrings implements the "less" relation with absent-last semantics:
// direction flips the comparison of two present values but never moves an
// absent value off the end.
func orderStrings(col *collate.Collator, a string, aOK bool, b string, bOK bool, desc bool) bool {
	if !aOK || !bOK {
		return aOK && !bOK
	}
	cmp := col.CompareString(a, b)
	if desc {
		return cmp > 0
	}
	return cmp < 0
}

func orderTimestamps(a, b string, desc bool) bool {
	if a == "" || b == "" {
		return a != "" && b == ""
	}
	ta := parseTimestamp(a)
	tb := parseTimestamp(b)
	if desc {
		return ta.After(tb)
	}
	return ta.Before(tb)
}

// parseTimestamp reads an ISO-8601 timestamp, treating anything unparseable
// as the epoch so malformed metadata sorts first, never panics.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Unix(0, 0)
}
