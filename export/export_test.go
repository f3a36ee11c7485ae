package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
)

func sampleProjection() Projection {
	rows := []facts.FactRow{
		{ID: "h1::os", Host: "h1", FactPath: "os", Value: facts.String("Ubuntu"), Modified: "2026-03-01T00:00:00Z"},
		{ID: "h1::note", Host: "h1", FactPath: "note", Value: facts.String(`contains, comma and "quotes"`), Modified: "2026-03-01T00:00:00Z"},
		{ID: "h2::os", Host: "h2", FactPath: "os", Value: facts.String("line1\nline2"), Modified: "2026-03-02T00:00:00Z"},
	}
	return ListProjection("facts", rows)
}

func TestListProjectionHeaders(t *testing.T) {
	p := sampleProjection()
	want := []string{ColHost, ColFactPath, ColValue, ColModified}
	if !reflect.DeepEqual(p.Headers, want) {
		t.Errorf("headers = %v, want %v", p.Headers, want)
	}

	// Without timestamps, the modified column disappears.
	noMod := ListProjection("facts", []facts.FactRow{
		{ID: "h1::os", Host: "h1", FactPath: "os", Value: facts.String("x")},
	})
	if !reflect.DeepEqual(noMod.Headers, []string{ColHost, ColFactPath, ColValue}) {
		t.Errorf("headers = %v", noMod.Headers)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	p := sampleProjection()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, p); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("produced CSV does not parse: %v", err)
	}
	if !reflect.DeepEqual(records[0], p.Headers) {
		t.Errorf("header row = %v", records[0])
	}
	if len(records) != len(p.Records)+1 {
		t.Fatalf("got %d lines, want %d", len(records), len(p.Records)+1)
	}
	for i, rec := range p.Records {
		for j, h := range p.Headers {
			if records[i+1][j] != cell(rec, h) {
				t.Errorf("row %d col %s = %q, want %q", i, h, records[i+1][j], cell(rec, h))
			}
		}
	}
}

func TestWriteCSVEmptyProjection(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, Projection{Name: "facts", Headers: []string{"host"}})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if buf.Len() != 0 {
		t.Errorf("empty export wrote %d bytes", buf.Len())
	}
}

func TestWriteXLSX(t *testing.T) {
	pivot := facts.BuildPivot([]facts.FactRow{
		{ID: "h1::role", Host: "h1", FactPath: "role", Value: facts.String("web")},
		{ID: "h2::role", Host: "h2", FactPath: "role", Value: facts.String("db")},
	})
	p := PivotProjection("pivot", pivot)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, p); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("produced workbook does not open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("pivot")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d sheet rows, want 3", len(rows))
	}
	if !reflect.DeepEqual(rows[0], []string{"hostname", "role"}) {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][0] != "h1" || rows[1][1] != "web" {
		t.Errorf("first record = %v", rows[1])
	}
}

func TestWriteXLSXEmptyProjection(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Projection{Name: "x"}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestSheetNameCap(t *testing.T) {
	long := "a-very-long-dataset-name-that-exceeds-the-limit"
	if got := sheetName(long); len(got) != 31 {
		t.Errorf("sheetName length = %d, want 31", len(got))
	}
	if got := sheetName(""); got != "facts" {
		t.Errorf("default sheet name = %q", got)
	}
}
