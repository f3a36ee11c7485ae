package facts

import (
	"reflect"
	"testing"
)

func TestBuildPivotScenario(t *testing.T) {
	// Hosts b and a, each with fact "role"; group order follows row order.
	rows := []FactRow{
		row("b", "role", String("db")),
		row("a", "role", String("web")),
	}
	p := BuildPivot(rows)

	if want := []string{HostnameColumn, "role"}; !reflect.DeepEqual(p.Headers, want) {
		t.Errorf("headers = %v, want %v", p.Headers, want)
	}
	if len(p.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(p.Records))
	}
	if p.Records[0][HostnameColumn].ComparableString() != "b" {
		t.Errorf("record order must follow first appearance, got %v first", p.Records[0][HostnameColumn])
	}

	// An explicit sort by hostname reorders to a, b.
	sorted := SortPivot(p.Records, HostnameColumn, false)
	if sorted[0][HostnameColumn].ComparableString() != "a" {
		t.Errorf("sorted order wrong: %v first", sorted[0][HostnameColumn])
	}
}

func TestBuildPivotHeadersSorted(t *testing.T) {
	rows := []FactRow{
		row("h1", "zeta", String("1")),
		row("h1", "alpha", String("2")),
		row("h2", "mid", String("3")),
	}
	p := BuildPivot(rows)
	if want := []string{HostnameColumn, "alpha", "mid", "zeta"}; !reflect.DeepEqual(p.Headers, want) {
		t.Errorf("headers = %v, want %v", p.Headers, want)
	}
}

func TestBuildPivotSparseColumns(t *testing.T) {
	rows := []FactRow{
		row("h1", "only_h1", String("x")),
		row("h2", "only_h2", String("y")),
	}
	p := BuildPivot(rows)
	if _, ok := p.Records[0]["only_h2"]; ok {
		t.Error("h1 must not carry a value for only_h2")
	}
	if _, ok := p.Records[1]["only_h2"]; !ok {
		t.Error("h2 missing its own fact")
	}
}

func TestBuildPivotSentinelContributesNoColumn(t *testing.T) {
	rows := []FactRow{
		row("h1", "os", String("linux")),
		{ID: "bare::---", Host: "bare", FactPath: SentinelPath, Value: String(SentinelValue)},
	}
	p := BuildPivot(rows)

	if want := []string{HostnameColumn, "os"}; !reflect.DeepEqual(p.Headers, want) {
		t.Errorf("headers = %v, want %v (sentinel must not become a column)", p.Headers, want)
	}
	// The factless host still gets a record with just its hostname.
	if len(p.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(p.Records))
	}
	if got := p.Records[1][HostnameColumn].ComparableString(); got != "bare" {
		t.Errorf("second record hostname = %q", got)
	}
	if len(p.Records[1]) != 1 {
		t.Errorf("sentinel host record has extra fields: %v", p.Records[1])
	}
}

func TestBuildPivotEmpty(t *testing.T) {
	p := BuildPivot(nil)
	if len(p.Records) != 0 {
		t.Errorf("records = %v", p.Records)
	}
	if want := []string{HostnameColumn}; !reflect.DeepEqual(p.Headers, want) {
		t.Errorf("headers = %v, want %v", p.Headers, want)
	}
}
