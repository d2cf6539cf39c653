// Public domain.

package catalog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/klauspost/compress/gzip"

	"github.com/sagasurvey/saga/table"
)

// ReadFITSHeader returns the cards of the primary header of a FITS file,
// gzipped or not, by keyword.
func ReadFITSHeader(path string) (map[string]interface{}, error) {
	r, err := openReader(path, strings.HasSuffix(strings.ToLower(path), ".gz"))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	defer f.Close()
	hdr := f.HDU(0).Header()
	cards := make(map[string]interface{})
	for _, k := range hdr.Keys() {
		if c := hdr.Get(k); c != nil {
			cards[k] = c.Value
		}
	}
	return cards, nil
}

// WriteFITSHeader writes a FITS file holding only a primary header with the
// given cards, in keyword order.
func WriteFITSHeader(path string, cards map[string]interface{}) error {
	keys := make([]string, 0, len(cards))
	for k := range cards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fc := make([]fitsio.Card, len(keys))
	for i, k := range keys {
		fc[i] = fitsio.Card{Name: k, Value: cards[k]}
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	var w io.Writer = out
	var z *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		z = gzip.NewWriter(out)
		w = z
	}
	f, err := fitsio.Create(w)
	if err == nil {
		img := fitsio.NewImage(8, nil)
		if err = img.Header().Append(fc...); err == nil {
			err = f.Write(img)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	if z != nil {
		if cerr := z.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

func readFITS(r io.Reader) (*table.Table, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	for _, hdu := range f.HDUs() {
		if tbl, ok := hdu.(*fitsio.Table); ok {
			return readFITSTable(tbl)
		}
	}
	return nil, fmt.Errorf("no table HDU")
}

// fitsColumn collects the values of one FITS column.  Vector columns are
// scanned but not kept.
type fitsColumn struct {
	ptr  interface{}
	keep bool
	c    *table.Column
}

func newFITSColumn(col fitsio.Column, ascii bool) (*fitsColumn, error) {
	code, repeat := parseTForm(col.Format, ascii)
	fc := &fitsColumn{keep: repeat == 1 || code == 'A'}
	var k table.Kind
	switch code {
	case 'A':
		fc.ptr, k = new(string), table.String
	case 'L':
		fc.ptr, k = new(bool), table.Bool
	case 'B':
		fc.ptr, k = new(uint8), table.Int
	case 'I':
		if ascii {
			fc.ptr, k = new(int64), table.Int
		} else {
			fc.ptr, k = new(int16), table.Int
		}
	case 'J':
		fc.ptr, k = new(int32), table.Int
	case 'K':
		fc.ptr, k = new(int64), table.Int
	case 'E':
		if ascii {
			fc.ptr, k = new(float64), table.Float
		} else {
			fc.ptr, k = new(float32), table.Float
		}
	case 'D', 'F':
		fc.ptr, k = new(float64), table.Float
	default:
		return nil, fmt.Errorf("column %s: unsupported format %q", col.Name, col.Format)
	}
	if !fc.keep {
		fc.ptr = vectorTarget(code)
	}
	fc.c, _ = table.Filled(col.Name, k, 0, nil)
	return fc, nil
}

func vectorTarget(code byte) interface{} {
	switch code {
	case 'L':
		return new([]bool)
	case 'B':
		return new([]uint8)
	case 'I':
		return new([]int16)
	case 'J':
		return new([]int32)
	case 'K':
		return new([]int64)
	case 'E':
		return new([]float32)
	}
	return new([]float64)
}

// parseTForm splits a TFORM value like "16A" or "1D" into its type code
// and repeat count.  ASCII table forms like "F10.4" have the code first.
func parseTForm(form string, ascii bool) (byte, int) {
	form = strings.TrimSpace(strings.ToUpper(form))
	if form == "" {
		return 0, 0
	}
	if ascii {
		return form[0], 1
	}
	i := 0
	for i < len(form) && form[i] >= '0' && form[i] <= '9' {
		i++
	}
	if i == len(form) {
		return 0, 0
	}
	repeat := 1
	if i > 0 {
		repeat, _ = strconv.Atoi(form[:i])
	}
	return form[i], repeat
}

func (fc *fitsColumn) append() {
	c := fc.c
	switch p := fc.ptr.(type) {
	case *string:
		c.Strings = append(c.Strings, strings.TrimRight(strings.TrimLeft(*p, "\x00"), " \x00"))
	case *bool:
		c.Bools = append(c.Bools, *p)
	case *uint8:
		c.Ints = append(c.Ints, int64(*p))
	case *int16:
		c.Ints = append(c.Ints, int64(*p))
	case *int32:
		c.Ints = append(c.Ints, int64(*p))
	case *int64:
		c.Ints = append(c.Ints, *p)
	case *float32:
		c.Floats = append(c.Floats, float64(*p))
	case *float64:
		c.Floats = append(c.Floats, *p)
	}
}

func readFITSTable(tbl *fitsio.Table) (*table.Table, error) {
	ascii := tbl.Type() == fitsio.ASCII_TBL
	cols := tbl.Cols()
	fcs := make([]*fitsColumn, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i, col := range cols {
		fc, err := newFITSColumn(col, ascii)
		if err != nil {
			return nil, err
		}
		fcs[i] = fc
		ptrs[i] = fc.ptr
	}
	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		if err = rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for _, fc := range fcs {
			if fc.keep {
				fc.append()
			}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	t, _ := table.New()
	for _, fc := range fcs {
		if !fc.keep {
			continue
		}
		if err = t.Add(fc.c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func writeFITS(w io.Writer, t *table.Table) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()

	phdu := fitsio.NewImage(8, nil)
	defer phdu.Close()
	if err = phdu.Header().Append(fitsio.Card{Name: "EXTEND", Value: true}); err != nil {
		return err
	}
	if err = f.Write(phdu); err != nil {
		return err
	}

	src := t.Cols()
	cols := make([]fitsio.Column, len(src))
	vals := make([]interface{}, len(src))
	for i, c := range src {
		cols[i].Name = c.Name
		switch c.Kind {
		case table.Float:
			cols[i].Format, vals[i] = "D", new(float64)
		case table.Int:
			cols[i].Format, vals[i] = "K", new(int64)
		case table.Bool:
			cols[i].Format, vals[i] = "L", new(bool)
		case table.String:
			// fitsio stores a string field as a NUL then the text, so the
			// field holds one byte more than the longest value.
			width := 1
			for _, s := range c.Strings {
				if len(s)+1 > width {
					width = len(s) + 1
				}
			}
			cols[i].Format, vals[i] = strconv.Itoa(width)+"A", new(string)
		default:
			return fmt.Errorf("column %s: no FITS form for %v", c.Name, c.Kind)
		}
	}
	tbl, err := fitsio.NewTable("CATALOG", cols, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer tbl.Close()
	for row := 0; row < t.Len(); row++ {
		for i, c := range src {
			switch p := vals[i].(type) {
			case *float64:
				*p = c.Floats[row]
			case *int64:
				*p = c.Ints[row]
			case *bool:
				*p = c.Bools[row]
			case *string:
				*p = c.Strings[row]
			}
		}
		if err = tbl.Write(vals...); err != nil {
			return err
		}
	}
	return f.Write(tbl)
}
