// Package export serializes an already-computed projection (flat list or
// pivot) to CSV or XLSX. It is a pure function of its input: no filtering or
// business logic happens here.
package export

import (
	"errors"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
)

// ErrNoData is returned when a projection has no records. Callers surface
// it as a disabled/inert affordance, not a failure.
var ErrNoData = errors.New("export: projection has no records")

// Projection is the uniform shape both serializers consume: ordered headers
// plus one record per output row. Records may omit headers (sparse pivot
// columns); missing cells serialize as empty.
type Projection struct {
	Name    string
	Headers []string
	Records []map[string]facts.Value
}

// Empty reports whether there is nothing to export.
func (p Projection) Empty() bool { return len(p.Records) == 0 }

// List column headers (modified is appended only when any row carries one).
const (
	ColHost     = "host"
	ColFactPath = "factPath"
	ColValue    = "value"
	ColModified = "modified"
)

// ListProjection reshapes flat rows into the list-view export.
func ListProjection(name string, rows []facts.FactRow) Projection {
	withModified := false
	for _, r := range rows {
		if r.Modified != "" {
			withModified = true
			break
		}
	}

	headers := []string{ColHost, ColFactPath, ColValue}
	if withModified {
		headers = append(headers, ColModified)
	}

	records := make([]map[string]facts.Value, 0, len(rows))
	for _, r := range rows {
		rec := map[string]facts.Value{
			ColHost:     facts.String(r.Host),
			ColFactPath: facts.String(r.FactPath),
			ColValue:    r.Value,
		}
		if withModified {
			rec[ColModified] = facts.String(r.Modified)
		}
		records = append(records, rec)
	}
	return Projection{Name: name, Headers: headers, Records: records}
}

// PivotProjection adapts a pivot to the export shape unchanged.
func PivotProjection(name string, p facts.Pivot) Projection {
	records := make([]map[string]facts.Value, 0, len(p.Records))
	for _, rec := range p.Records {
		records = append(records, map[string]facts.Value(rec))
	}
	return Projection{Name: name, Headers: p.Headers, Records: records}
}

// cell returns the serialized text of one cell, empty when absent.
func cell(rec map[string]facts.Value, header string) string {
	v, ok := rec[header]
	if !ok {
		return ""
	}
	return v.ComparableString()
}
