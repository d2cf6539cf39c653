// Public domain.

package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the element type of a column.
type Kind int

const (
	Float Kind = iota
	Int
	String
	Bool
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Column is a named vector of values of a single kind.  Exactly one of the
// slices is in use, the one selected by Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
	Bools   []bool
}

// NewFloats, NewInts, NewStrings and NewBools wrap existing slices.
// The slices are not copied.
func NewFloats(name string, v []float64) *Column {
	return &Column{Name: name, Kind: Float, Floats: v}
}

func NewInts(name string, v []int64) *Column {
	return &Column{Name: name, Kind: Int, Ints: v}
}

func NewStrings(name string, v []string) *Column {
	return &Column{Name: name, Kind: String, Strings: v}
}

func NewBools(name string, v []bool) *Column {
	return &Column{Name: name, Kind: Bool, Bools: v}
}

// Filled allocates a column of n copies of fill, converted to kind k.
func Filled(name string, k Kind, n int, fill interface{}) (*Column, error) {
	c := &Column{Name: name, Kind: k}
	c.alloc(n)
	if n == 0 {
		return c, nil
	}
	if err := c.Set(0, fill); err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		c.copyFrom(i, c, 0)
	}
	return c, nil
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Float:
		return len(c.Floats)
	case Int:
		return len(c.Ints)
	case String:
		return len(c.Strings)
	case Bool:
		return len(c.Bools)
	}
	return 0
}

// Value returns the value at row i as float64, int64, string or bool.
func (c *Column) Value(i int) interface{} {
	switch c.Kind {
	case Float:
		return c.Floats[i]
	case Int:
		return c.Ints[i]
	case String:
		return c.Strings[i]
	case Bool:
		return c.Bools[i]
	}
	return nil
}

// Float returns the value at row i as a float64.  ok is false for
// values that have no numeric meaning.
func (c *Column) Float(i int) (f float64, ok bool) {
	switch c.Kind {
	case Float:
		return c.Floats[i], true
	case Int:
		return float64(c.Ints[i]), true
	case Bool:
		if c.Bools[i] {
			return 1, true
		}
		return 0, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.Strings[i]), 64)
		return f, err == nil
	}
	return 0, false
}

// Set stores v at row i, converting it to the column kind.
func (c *Column) Set(i int, v interface{}) error {
	switch c.Kind {
	case Float:
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("column %s: %w", c.Name, err)
		}
		c.Floats[i] = f
	case Int:
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("column %s: %w", c.Name, err)
		}
		c.Ints[i] = n
	case String:
		c.Strings[i] = toString(v)
	case Bool:
		b, err := toBool(v)
		if err != nil {
			return fmt.Errorf("column %s: %w", c.Name, err)
		}
		c.Bools[i] = b
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Column) Clone() *Column {
	d := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case Float:
		d.Floats = append([]float64(nil), c.Floats...)
	case Int:
		d.Ints = append([]int64(nil), c.Ints...)
	case String:
		d.Strings = append([]string(nil), c.Strings...)
	case Bool:
		d.Bools = append([]bool(nil), c.Bools...)
	}
	return d
}

// Take returns a new column with the values at the given rows, in order.
func (c *Column) Take(rows []int) *Column {
	d := &Column{Name: c.Name, Kind: c.Kind}
	d.alloc(len(rows))
	for k, i := range rows {
		d.copyFrom(k, c, i)
	}
	return d
}

// Convert returns a copy of c holding kind k.  Converting to the same kind
// is a plain copy.
func (c *Column) Convert(k Kind) (*Column, error) {
	if k == c.Kind {
		return c.Clone(), nil
	}
	n := c.Len()
	d := &Column{Name: c.Name, Kind: k}
	d.alloc(n)
	for i := 0; i < n; i++ {
		if err := d.Set(i, c.Value(i)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return d, nil
}

func (c *Column) alloc(n int) {
	switch c.Kind {
	case Float:
		c.Floats = make([]float64, n)
	case Int:
		c.Ints = make([]int64, n)
	case String:
		c.Strings = make([]string, n)
	case Bool:
		c.Bools = make([]bool, n)
	}
}

// copyFrom copies row j of s to row i of c.  Kinds must match.
func (c *Column) copyFrom(i int, s *Column, j int) {
	switch c.Kind {
	case Float:
		c.Floats[i] = s.Floats[j]
	case Int:
		c.Ints[i] = s.Ints[j]
	case String:
		c.Strings[i] = s.Strings[j]
	case Bool:
		c.Bools[i] = s.Bools[j]
	}
}

func (c *Column) appendFrom(s *Column) {
	switch c.Kind {
	case Float:
		c.Floats = append(c.Floats, s.Floats...)
	case Int:
		c.Ints = append(c.Ints, s.Ints...)
	case String:
		c.Strings = append(c.Strings, s.Strings...)
	case Bool:
		c.Bools = append(c.Bools, s.Bools...)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		switch strings.ToLower(s) {
		case "", "nan", "--":
			return math.NaN(), nil
		}
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

func toInt(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case float32:
		return toInt(float64(x))
	case float64:
		// NaN fails both comparisons
		if !(x >= -1<<63 && x < 1<<63) {
			return 0, fmt.Errorf("cannot convert %v to int", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return toInt(f)
	}
	return 0, fmt.Errorf("cannot convert %T to int", v)
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}

func toBool(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	f, err := toFloat(v)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}
