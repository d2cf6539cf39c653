// Public domain.

// Package spectra reads the redshift outputs of the telescopes used by SAGA
// into a single canonical table schema.
package spectra

import (
	"fmt"
	"math"

	"github.com/sagasurvey/saga/astro"
	"github.com/sagasurvey/saga/table"
)

// Field describes one canonical column.
type Field struct {
	Name string
	Kind table.Kind
	Fill interface{} // value for a missing column
}

// Schema is the canonical column set, in output order.
var Schema = []Field{
	{"SPECOBJID", table.String, ""},
	{"RA", table.Float, math.NaN()},
	{"DEC", table.Float, math.NaN()},
	{"SPEC_Z", table.Float, math.NaN()},
	{"SPEC_Z_ERR", table.Float, UnknownZErr},
	{"ZQUALITY", table.Int, int64(-1)},
	{"MASKNAME", table.String, ""},
	{"TELNAME", table.String, ""},
	{"HELIO_CORR", table.Bool, false},
}

// UnknownZErr fills SPEC_Z_ERR when a source has no redshift error.
const UnknownZErr = 99.

// BaselineZErr is the redshift error assigned to telescopes that do not
// report one, 10 km/s.
const BaselineZErr = 10 / astro.SpeedOfLight

// Names returns the canonical column names in order.
func Names() []string {
	n := make([]string, len(Schema))
	for i, f := range Schema {
		n[i] = f.Name
	}
	return n
}

// SchemaError reports a canonical column absent from a table.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return "spectra: missing column " + e.Column
}

// Normalize returns t with exactly the canonical columns, in canonical order
// and with canonical kinds.  Other columns are dropped.  A missing column is
// added with its fill value when skipMissing is true, otherwise it is a
// *SchemaError.  RA is wrapped into [0, 360).  Rows are not reordered.
func Normalize(t *table.Table, skipMissing bool) (*table.Table, error) {
	out, _ := table.New()
	for _, f := range Schema {
		c := t.Col(f.Name)
		var err error
		switch {
		case c != nil:
			c, err = c.Convert(f.Kind)
		case skipMissing:
			c, err = table.Filled(f.Name, f.Kind, t.Len(), f.Fill)
		default:
			return nil, &SchemaError{f.Name}
		}
		if err != nil {
			return nil, fmt.Errorf("spectra: column %s: %w", f.Name, err)
		}
		if err = out.Add(c); err != nil {
			return nil, err
		}
	}
	ra := out.Col("RA").Floats
	for i, r := range ra {
		if r < 0 || r >= 360 {
			ra[i] = math.Mod(math.Mod(r, 360)+360, 360)
		}
	}
	return out, nil
}

// Coerce converts the canonical columns present in t to canonical kinds.
// Other columns are kept as they are and missing ones are not added.
func Coerce(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	for _, f := range Schema {
		c := out.Col(f.Name)
		if c == nil || c.Kind == f.Kind {
			continue
		}
		d, err := c.Convert(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("spectra: column %s: %w", f.Name, err)
		}
		if err = out.Set(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}
