// Public domain.

// Package table implements the small in-memory column table used throughout
// saga, along with declarative row queries, vertical stacking, joining by sky
// coordinates and query based value filling.
package table

import (
	"errors"
	"fmt"
)

// Table is an ordered set of equal length columns.
//
// Operations that return a *Table never modify their receiver unless
// documented otherwise.
type Table struct {
	cols  []*Column
	index map[string]int
	n     int
}

// New builds a table from columns.  All columns must have the same length
// and distinct names.  Columns are used directly, not copied.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int)}
	for _, c := range cols {
		if err := t.Add(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Cols returns the columns in order.  The slice is a copy; the columns
// are not.
func (t *Table) Cols() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Col returns the named column, or nil.
func (t *Table) Col(name string) *Column {
	if i, ok := t.index[name]; ok {
		return t.cols[i]
	}
	return nil
}

// Add appends a column in place.
func (t *Table) Add(c *Column) error {
	if c == nil || c.Name == "" {
		return errors.New("table: column must be named")
	}
	if t.Has(c.Name) {
		return fmt.Errorf("table: duplicate column %s", c.Name)
	}
	if len(t.cols) > 0 && c.Len() != t.n {
		return fmt.Errorf("table: column %s has %d rows, table has %d",
			c.Name, c.Len(), t.n)
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.n = c.Len()
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// Set replaces the column of the same name, keeping its position, or
// appends c if the table has no such column.  It modifies t in place.
func (t *Table) Set(c *Column) error {
	i, ok := t.index[c.Name]
	if !ok {
		return t.Add(c)
	}
	if c.Len() != t.n {
		return fmt.Errorf("table: column %s has %d rows, table has %d",
			c.Name, c.Len(), t.n)
	}
	t.cols[i] = c
	return nil
}

// Remove deletes a column in place.  Removing an absent column is a no-op.
func (t *Table) Remove(name string) {
	i, ok := t.index[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.reindex()
}

// Rename renames a column in place.
func (t *Table) Rename(from, to string) error {
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("table: no column %s", from)
	}
	if from == to {
		return nil
	}
	if t.Has(to) {
		return fmt.Errorf("table: duplicate column %s", to)
	}
	t.cols[i].Name = to
	t.reindex()
	return nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.Name] = i
	}
	if len(t.cols) == 0 {
		t.n = 0
	}
}

// Select returns a new table holding copies of the named columns, in the
// order given.
func (t *Table) Select(names ...string) (*Table, error) {
	s := &Table{index: make(map[string]int)}
	for _, name := range names {
		c := t.Col(name)
		if c == nil {
			return nil, fmt.Errorf("table: no column %s", name)
		}
		if err := s.Add(c.Clone()); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		s.n = 0
	}
	return s, nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := &Table{index: make(map[string]int, len(t.cols)), n: t.n}
	for i, col := range t.cols {
		c.cols = append(c.cols, col.Clone())
		c.index[col.Name] = i
	}
	return c
}

// Take returns a new table with the given rows, in order.
func (t *Table) Take(rows []int) *Table {
	s := &Table{index: make(map[string]int, len(t.cols)), n: len(rows)}
	for i, col := range t.cols {
		s.cols = append(s.cols, col.Take(rows))
		s.index[col.Name] = i
	}
	return s
}

// Filter returns a new table holding rows where mask is true.
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.n {
		return nil, fmt.Errorf("table: mask has %d rows, table has %d",
			len(mask), t.n)
	}
	rows := make([]int, 0, t.n)
	for i, m := range mask {
		if m {
			rows = append(rows, i)
		}
	}
	return t.Take(rows), nil
}

// VStack vertically concatenates tables.  Column names, order, and kinds
// must match exactly.  An empty argument list is an error.
func VStack(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.New("table: nothing to stack")
	}
	first := tables[0]
	out := first.Clone()
	for k, t := range tables[1:] {
		if len(t.cols) != len(first.cols) {
			return nil, fmt.Errorf("table: stack %d has %d columns, want %d",
				k+1, len(t.cols), len(first.cols))
		}
		for i, c := range t.cols {
			f := first.cols[i]
			if c.Name != f.Name || c.Kind != f.Kind {
				return nil, fmt.Errorf(
					"table: stack %d column %d is %s %s, want %s %s",
					k+1, i, c.Name, c.Kind, f.Name, f.Kind)
			}
			out.cols[i].appendFrom(c)
		}
		out.n += t.n
	}
	return out, nil
}
