package facts

import "sort"

// HostnameColumn is the fixed first header of every pivot projection.
const HostnameColumn = "hostname"

// PivotRecord is one host's row in the pivot view: the hostname plus one
// entry per fact path observed for that host. Paths the host never reported
// are simply absent.
type PivotRecord map[string]Value

// Pivot is the host-by-fact projection of a row set.
type Pivot struct {
	Records []PivotRecord
	Headers []string
}

// BuildPivot regroups rows by host, one record per host in first-appearance
// order. Sentinel rows keep their host in the grouping but contribute no
// column. Headers are "hostname" followed by every distinct fact path across
// all groups in ascending byte order.
func BuildPivot(rows []FactRow) Pivot {
	records := make([]PivotRecord, 0)
	byHost := make(map[string]PivotRecord)
	seen := make(map[string]struct{})
	var paths []string

	for _, row := range rows {
		rec, ok := byHost[row.Host]
		if !ok {
			rec = PivotRecord{HostnameColumn: String(row.Host)}
			byHost[row.Host] = rec
			records = append(records, rec)
		}
		if row.Sentinel() {
			continue
		}
		rec[row.FactPath] = row.Value
		if _, dup := seen[row.FactPath]; !dup {
			seen[row.FactPath] = struct{}{}
			paths = append(paths, row.FactPath)
		}
	}

	sort.Strings(paths)
	headers := make([]string, 0, len(paths)+1)
	headers = append(headers, HostnameColumn)
	headers = append(headers, paths...)
	return Pivot{Records: records, Headers: headers}
}
