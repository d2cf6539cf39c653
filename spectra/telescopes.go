// Public domain.

package spectra

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sagasurvey/saga/astro"
	"github.com/sagasurvey/saga/catalog"
	"github.com/sagasurvey/saga/table"
)

var specIDCut = table.Cmp("SPECOBJID", table.Ne, "0")

// textFormats returns the text formats known to Readers.
func textFormats() []TextFormat {
	aatHelio := &Helio{Site: "sso", RAKey: "MEANRA", DecKey: "MEANDEC", TimeKey: "UTMJD"}
	return []TextFormat{{
		Telescope: "mmt",
		TelName:   "MMT",
		Pattern:   "*.zlog",
		Columns: map[int]string{
			2: "RA", 3: "DEC", 4: "mag", 5: "SPEC_Z", 6: "SPEC_Z_ERR",
			7: "ZQUALITY", 8: "SPECOBJID",
		},
		NumCols: 11,
		Cuts: table.And(
			table.Cmp("mag", table.Ne, 0),
			table.Cmp("ZQUALITY", table.Ge, 0),
			specIDCut,
		),
		Helio: &Helio{Site: "mmt", RAKey: "RA", DecKey: "DEC", TimeKey: "MJD"},
		Post: func(t *table.Table) error {
			t.Remove("mag")
			return scale(t, 15, "RA")
		},
	}, {
		Telescope: "aat",
		TelName:   "AAT",
		Pattern:   "*.zlog",
		Columns: map[int]string{
			2: "RA", 3: "DEC", 5: "SPEC_Z", 7: "ZQUALITY", 8: "SPECOBJID",
		},
		NumCols: 11,
		Cuts:    table.And(table.Cmp("ZQUALITY", table.Ge, 0), specIDCut),
		Helio:   aatHelio,
		Post:    baselineZErr,
	}, {
		Telescope: "aat_mz",
		TelName:   "AAT",
		Pattern:   "*.mz",
		Columns: map[int]string{
			1: "SPECOBJID", 3: "RA", 4: "DEC", 13: "SPEC_Z", 14: "ZQUALITY",
		},
		NumCols: 15,
		Comma:   true,
		Cuts:    table.Cmp("ZQUALITY", table.Ge, 0),
		Helio:   aatHelio,
		Post: func(t *table.Table) error {
			if err := scale(t, 180/math.Pi, "RA", "DEC"); err != nil {
				return err
			}
			return baselineZErr(t)
		},
	}, {
		Telescope: "imacs",
		TelName:   "IMACS",
		Pattern:   "*.zlog",
		Columns: map[int]string{
			2: "RA", 3: "DEC", 5: "SPEC_Z", 6: "SPEC_Z_ERR", 7: "ZQUALITY",
			8: "SPECOBJID", 11: "MASKNAME",
		},
		NumCols: 12,
		Cuts:    table.And(table.Cmp("ZQUALITY", table.Ge, 1), specIDCut),
	}}
}

// scale multiplies float columns by f in place.
func scale(t *table.Table, f float64, cols ...string) error {
	for _, name := range cols {
		c := t.Col(name)
		if c == nil || c.Kind != table.Float {
			return fmt.Errorf("no float column %s", name)
		}
		for i := range c.Floats {
			c.Floats[i] *= f
		}
	}
	return nil
}

func baselineZErr(t *table.Table) error {
	c, err := table.Filled("SPEC_Z_ERR", table.Float, t.Len(), BaselineZErr)
	if err != nil {
		return err
	}
	return t.Set(c)
}

// wiynReader reads a directory of gzipped FITS tables.  RA is in hours,
// as a number or a sexagesimal string.
type wiynReader struct {
	log *zap.Logger
}

var wiynColumns = []string{"RA", "DEC", "ZQUALITY", "FID", "Z", "Z_ERR"}

func (r *wiynReader) Read(dir string, _ time.Time) (*table.Table, error) {
	names, err := scanDir("wiyn", dir, "*.fits.gz", r.log)
	if err != nil {
		return nil, err
	}
	var parts []*table.Table
	for _, name := range names {
		path := filepath.Join(dir, name)
		t, err := r.readFile(path)
		if err != nil {
			r.log.Warn("cannot read redshift file", zap.String("file", path), zap.Error(err))
			continue
		}
		if t.Len() == 0 {
			continue
		}
		if err = setString(t, "MASKNAME", name); err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}
	return finish("wiyn", "WIYN", dir, parts, func(t *table.Table) error {
		for _, n := range [][2]string{{"FID", "SPECOBJID"}, {"Z", "SPEC_Z"}, {"Z_ERR", "SPEC_Z_ERR"}} {
			if err := t.Rename(n[0], n[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *wiynReader) readFile(path string) (*table.Table, error) {
	all, err := catalog.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := all.Select(wiynColumns...)
	if err != nil {
		return nil, err
	}
	for _, c := range []struct {
		name  string
		scale float64
	}{{"RA", 15}, {"DEC", 1}} {
		deg, err := angleColumn(t.Col(c.name), c.scale)
		if err != nil {
			return nil, err
		}
		if err = t.Set(deg); err != nil {
			return nil, err
		}
	}
	// the stacked columns must agree in kind before renaming
	for _, n := range []string{"FID", "Z", "Z_ERR"} {
		k := table.Float
		if n == "FID" {
			k = table.String
		}
		c, err := t.Col(n).Convert(k)
		if err != nil {
			return nil, err
		}
		if err = t.Set(c); err != nil {
			return nil, err
		}
	}
	if t, err = Coerce(t); err != nil {
		return nil, err
	}
	return table.Filter(t, table.Cmp("ZQUALITY", table.Ge, 1))
}

// angleColumn converts a column of numbers or sexagesimal strings to a
// float column in degrees, multiplying by scale.
func angleColumn(c *table.Column, scale float64) (*table.Column, error) {
	out := table.NewFloats(c.Name, make([]float64, c.Len()))
	for i := range out.Floats {
		var v float64
		if c.Kind == table.String {
			var err error
			if v, err = astro.ParseSexagesimal(c.Strings[i]); err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", c.Name, i, err)
			}
		} else {
			v, _ = c.Float(i)
		}
		out.Floats[i] = v * scale
	}
	return out, nil
}

// deimosReader returns the few vetted DEIMOS redshifts.
type deimosReader struct{}

func (deimosReader) Read(string, time.Time) (*table.Table, error) {
	t, err := table.New(
		table.NewFloats("RA", []float64{247.825839103498, 221.86742, 150.12470}),
		table.NewFloats("DEC", []float64{20.210825313885, -0.28144459, 32.561687}),
		table.NewStrings("MASKNAME", []string{"deimos2014", "deimos2016-DN1", "deimos2016-MD1"}),
		table.NewStrings("SPECOBJID", []string{"1", "1", "1"}),
		table.NewFloats("SPEC_Z", []float64{2375 / astro.SpeedOfLight, 0.056, 1.08}),
		table.NewFloats("SPEC_Z_ERR", []float64{0.001, 0.001, 0.001}),
		table.NewInts("ZQUALITY", []int64{4, 4, 4}),
		table.NewStrings("TELNAME", []string{"DEIMOS", "DEIMOS", "DEIMOS"}),
	)
	if err != nil {
		return nil, err
	}
	return Normalize(t, true)
}

// palomarReader reads one catalog file already in canonical columns.
type palomarReader struct{}

func (palomarReader) Read(path string, _ time.Time) (*table.Table, error) {
	t, err := catalog.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Normalize(t, false)
}
