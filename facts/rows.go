package facts

import "sort"

const (
	// SentinelPath marks the placeholder row synthesized for a host with
	// zero leaf facts.
	SentinelPath = "---"

	// SentinelValue is the display value of a sentinel row.
	SentinelValue = "(No data available)"
)

// FactRow is the atomic unit of the engine: one (host, factPath, value)
// triple, with the host's last-modified timestamp duplicated onto every row
// so it is filterable and sortable like any other column.
type FactRow struct {
	ID       string `json:"id"`
	Host     string `json:"host"`
	FactPath string `json:"factPath"`
	Value    Value  `json:"value"`
	Modified string `json:"modified,omitempty"`
}

// Sentinel reports whether r is the placeholder row for a factless host.
func (r FactRow) Sentinel() bool { return r.FactPath == SentinelPath }

// HostFacts is one host's entry in a loaded snapshot: a hostname and its
// (possibly deeply nested) fact object. Loaders place the host's
// last-modified timestamp under ModifiedFactKey.
type HostFacts struct {
	Host  string
	Facts map[string]any
}

// Snapshot is the immutable row model built from one load. It is replaced
// wholesale on reload and never mutated; filtering and sorting always
// produce new views over Rows().
type Snapshot struct {
	rows  []FactRow
	paths []string
	hosts int
}

// BuildSnapshot flattens every host into FactRows. Hosts appear in input
// order, paths within a host in flattening order; no sorting happens here.
// A host whose fact object has no leaves gets exactly one sentinel row.
func BuildSnapshot(hosts []HostFacts) *Snapshot {
	snap := &Snapshot{hosts: len(hosts)}
	seen := make(map[string]struct{})

	for _, h := range hosts {
		modified := ""
		if m, ok := h.Facts[ModifiedFactKey].(string); ok {
			modified = m
		}

		pairs := Flatten(h.Facts)
		if len(pairs) == 0 {
			snap.rows = append(snap.rows, FactRow{
				ID:       h.Host + "::" + SentinelPath,
				Host:     h.Host,
				FactPath: SentinelPath,
				Value:    String(SentinelValue),
				Modified: modified,
			})
			continue
		}

		for _, p := range pairs {
			snap.rows = append(snap.rows, FactRow{
				ID:       h.Host + "::" + p.Path,
				Host:     h.Host,
				FactPath: p.Path,
				Value:    p.Value,
				Modified: modified,
			})
			if _, dup := seen[p.Path]; !dup {
				seen[p.Path] = struct{}{}
				snap.paths = append(snap.paths, p.Path)
			}
		}
	}

	sort.Strings(snap.paths)
	return snap
}

// Rows returns the full row collection. Callers must treat it as read-only.
func (s *Snapshot) Rows() []FactRow { return s.rows }

// Paths returns every distinct fact path observed in the snapshot,
// alphabetically sorted, excluding the sentinel. It seeds column visibility
// to "all visible" by default.
func (s *Snapshot) Paths() []string { return s.paths }

// HostCount returns the number of hosts the snapshot was built from.
func (s *Snapshot) HostCount() int { return s.hosts }
