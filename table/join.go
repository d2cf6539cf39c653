// Public domain.

package table

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/sagasurvey/saga/astro"
)

// DefaultTolerance is the usual matching radius for joining catalogs.
var DefaultTolerance = unit.AngleFromSec(1)

// JoinOptions control JoinByCoordinates.
type JoinOptions struct {
	// Columns of the other table to join.  Nil means all of its columns;
	// an empty non-nil slice joins nothing.
	Columns []string
	// Rename maps an other-table column name to the name used in the result.
	Rename map[string]string
	// Tolerance is the maximum separation of a match.  Zero matches only
	// identical coordinates.
	Tolerance unit.Angle
	// Missing holds fill values by result column name for columns created
	// by the join.  Columns not listed get DefaultMissing.
	Missing map[string]interface{}
	// DefaultMissing is the fill for created columns.  Nil means NaN.
	DefaultMissing interface{}
	// Column names of coordinates in degrees.  Empty means RA and DEC.
	RA, DEC           string
	OtherRA, OtherDEC string
}

// DefaultJoinOptions returns options joining all columns within
// DefaultTolerance.
func DefaultJoinOptions() JoinOptions {
	return JoinOptions{Tolerance: DefaultTolerance}
}

func orDefault(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// JoinByCoordinates copies columns of other into a copy of base, for rows
// matched by sky position.
//
// All pairs within the tolerance are matched.  For each joined column that
// base does not have, a column is created and filled with its missing value
// before any match is copied.  When a base row matches several other rows,
// pairs are applied in order of other row index and the last one wins.
//
// The result is a new table; base is not modified.  n is the number of
// matched pairs.
func JoinByCoordinates(base, other *Table, opt JoinOptions) (joined *Table, n int, err error) {
	ra1, dec1, err := coords(base, orDefault(opt.RA, "RA"), orDefault(opt.DEC, "DEC"))
	if err != nil {
		return nil, 0, err
	}
	ra2, dec2, err := coords(other,
		orDefault(opt.OtherRA, "RA"), orDefault(opt.OtherDEC, "DEC"))
	if err != nil {
		return nil, 0, err
	}
	matches := astro.SearchAround(ra1, dec1, ra2, dec2, opt.Tolerance)

	cols := opt.Columns
	if cols == nil {
		cols = other.Names()
	}
	joined = base.Clone()
	for _, c2 := range cols {
		src := other.Col(c2)
		if src == nil {
			return nil, 0, fmt.Errorf("join: no column %s in table to join", c2)
		}
		c1 := c2
		if r, ok := opt.Rename[c2]; ok {
			c1 = r
		}
		dst := joined.Col(c1)
		if dst == nil {
			if dst, err = missingColumn(c1, src.Kind, base.Len(), opt); err != nil {
				return nil, 0, err
			}
			if err = joined.Add(dst); err != nil {
				return nil, 0, err
			}
		}
		for _, m := range matches {
			if dst.Kind == src.Kind {
				dst.copyFrom(m.I, src, m.J)
				continue
			}
			if err = dst.Set(m.I, src.Value(m.J)); err != nil {
				return nil, 0, fmt.Errorf("join: %w", err)
			}
		}
	}
	return joined, len(matches), nil
}

func missingColumn(name string, k Kind, n int, opt JoinOptions) (*Column, error) {
	fill, ok := opt.Missing[name]
	if !ok {
		fill = opt.DefaultMissing
	}
	if fill == nil {
		fill = math.NaN()
	}
	if f, isFloat := fill.(float64); isFloat && math.IsNaN(f) {
		switch k {
		case Int:
			// no integer NaN.  promote.
			k = Float
		case String:
			fill = ""
		case Bool:
			fill = false
		}
	}
	c, err := Filled(name, k, n, fill)
	if err != nil {
		return nil, fmt.Errorf("join: missing value for %s: %w", name, err)
	}
	return c, nil
}

func coords(t *Table, ra, dec string) ([]float64, []float64, error) {
	r := t.Col(ra)
	d := t.Col(dec)
	if r == nil || d == nil {
		return nil, nil, fmt.Errorf("join: table needs coordinate columns %s, %s", ra, dec)
	}
	rv := make([]float64, t.Len())
	dv := make([]float64, t.Len())
	for i := range rv {
		var ok bool
		if rv[i], ok = r.Float(i); !ok {
			rv[i] = math.NaN()
		}
		if dv[i], ok = d.Float(i); !ok {
			dv[i] = math.NaN()
		}
	}
	return rv, dv, nil
}

// FillValuesByQuery sets, for every row matching q, each column in values
// to the same literal value.  Columns not present are an error.
//
// It returns a modified copy and the number of matched rows.  When nothing
// matches t itself is returned.
func FillValuesByQuery(t *Table, q Query, values map[string]interface{}) (*Table, int, error) {
	mask, err := q.Mask(t)
	if err != nil {
		return nil, 0, err
	}
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	if n == 0 {
		return t, 0, nil
	}
	out := t.Clone()
	for name, v := range values {
		c := out.Col(name)
		if c == nil {
			return nil, 0, fmt.Errorf("fill: no column %s", name)
		}
		for i, m := range mask {
			if !m {
				continue
			}
			if err := c.Set(i, v); err != nil {
				return nil, 0, fmt.Errorf("fill: %w", err)
			}
		}
	}
	return out, n, nil
}
