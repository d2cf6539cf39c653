// Public domain.

package catalog

import (
	"encoding/csv"
	"io"

	"github.com/sagasurvey/saga/table"
)

func readCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	cr.FieldsPerRecord = len(header)
	values := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, v := range rec {
			values[i] = append(values[i], v)
		}
	}
	t, _ := table.New()
	for i, name := range header {
		if err = t.Add(table.Infer(name, values[i])); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV writes t to w as CSV with a header row.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	cols := t.Cols()
	rec := make([]string, len(cols))
	for row := 0; row < t.Len(); row++ {
		for i, c := range cols {
			rec[i] = c.Format(row)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
