package facts

// Apply runs the full filter pipeline over rows, preserving input order:
//
//	1. AND across pills — a row survives only if every pill matches it.
//	2. The live term, evaluated with the same grammar as a pill. Live
//	   differs from a pill only in lifecycle (uncommitted, cleared
//	   independently), never in semantics, so list and pivot views always
//	   agree on what matches.
//	3. Column visibility — rows whose path is hidden are dropped, except
//	   sentinel rows, which always survive so factless hosts stay visible.
//
// A nil visible set means "all paths visible". Apply never mutates rows.
func Apply(rows []FactRow, pills []string, live string, visible map[string]bool) []FactRow {
	out := make([]FactRow, 0, len(rows))
	for _, row := range rows {
		if !matchesAll(row, pills, live) {
			continue
		}
		if visible != nil && !row.Sentinel() && !visible[row.FactPath] {
			continue
		}
		out = append(out, row)
	}
	return out
}

// DashboardRows returns every row of every host that has at least one row
// matching the pills and live term, ignoring column visibility. Summary
// statistics are computed over this projection so they reflect all facts of
// matching hosts, not just the columns currently shown.
func DashboardRows(rows []FactRow, pills []string, live string) []FactRow {
	matched := make(map[string]bool)
	for _, row := range rows {
		if matchesAll(row, pills, live) {
			matched[row.Host] = true
		}
	}
	out := make([]FactRow, 0, len(rows))
	for _, row := range rows {
		if matched[row.Host] {
			out = append(out, row)
		}
	}
	return out
}

// VisibleSet builds the visibility set from a list of shown paths. An empty
// list yields nil, meaning every path is visible.
func VisibleSet(paths []string) map[string]bool {
	if len(paths) == 0 {
		return nil
	}
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

func matchesAll(row FactRow, pills []string, live string) bool {
	for _, pill := range pills {
		if !Matches(row, pill) {
			return false
		}
	}
	if live != "" && !Matches(row, live) {
		return false
	}
	return true
}
