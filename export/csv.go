package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV serializes the projection as RFC4180 CSV: header row first, then
// one line per record with fields in header order. Fields containing commas,
// quotes, or newlines are quoted with internal quotes doubled (encoding/csv
// semantics). An empty projection returns ErrNoData and writes nothing.
func WriteCSV(w io.Writer, p Projection) error {
	if p.Empty() {
		return ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(p.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]string, len(p.Headers))
	for _, rec := range p.Records {
		for i, h := range p.Headers {
			line[i] = cell(rec, h)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
