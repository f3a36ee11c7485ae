package facts

import "testing"

func TestBuildSnapshotSentinel(t *testing.T) {
	// Two hosts: h1 has no facts, h2 has one.
	snap := BuildSnapshot([]HostFacts{
		{Host: "h1", Facts: map[string]any{}},
		{Host: "h2", Facts: map[string]any{"os": "linux"}},
	})

	rows := snap.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !rows[0].Sentinel() || rows[0].Host != "h1" {
		t.Errorf("row 0 = %+v, want h1 sentinel", rows[0])
	}
	if rows[0].Value.ComparableString() != SentinelValue {
		t.Errorf("sentinel value = %q", rows[0].Value.ComparableString())
	}
	if rows[1].Host != "h2" || rows[1].FactPath != "os" {
		t.Errorf("row 1 = %+v", rows[1])
	}

	// The sentinel path never enters the distinct path set.
	if paths := snap.Paths(); len(paths) != 1 || paths[0] != "os" {
		t.Errorf("paths = %v, want [os]", paths)
	}
}

func TestBuildSnapshotRowCounts(t *testing.T) {
	snap := BuildSnapshot([]HostFacts{
		{Host: "web1", Facts: map[string]any{
			"ansible_distribution":    "Ubuntu",
			"ansible_processor_vcpus": float64(8),
		}},
		{Host: "db1", Facts: map[string]any{
			"ansible_distribution": "Debian",
		}},
	})

	perHost := make(map[string]int)
	for _, r := range snap.Rows() {
		perHost[r.Host]++
	}
	if perHost["web1"] != 2 || perHost["db1"] != 1 {
		t.Errorf("per-host counts = %v", perHost)
	}
	if snap.HostCount() != 2 {
		t.Errorf("HostCount = %d", snap.HostCount())
	}
}

func TestBuildSnapshotIDsStable(t *testing.T) {
	hosts := []HostFacts{{Host: "h1", Facts: map[string]any{"a": "x", "b": "y"}}}
	first := BuildSnapshot(hosts).Rows()
	second := BuildSnapshot(hosts).Rows()
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("row %d ID not deterministic: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
	seen := make(map[string]bool)
	for _, r := range first {
		if seen[r.ID] {
			t.Errorf("duplicate ID %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestBuildSnapshotModified(t *testing.T) {
	snap := BuildSnapshot([]HostFacts{
		{Host: "h1", Facts: map[string]any{
			ModifiedFactKey: "2026-03-01T12:00:00Z",
			"a":             "x",
			"b":             "y",
		}},
	})
	for _, r := range snap.Rows() {
		if r.Modified != "2026-03-01T12:00:00Z" {
			t.Errorf("row %q modified = %q", r.FactPath, r.Modified)
		}
	}
}
