// Public domain.

package table

import (
	"fmt"
	"math"
	"strings"
)

// Query is a declarative row predicate.
type Query interface {
	// Mask evaluates the query for every row of t.
	Mask(t *Table) ([]bool, error)
}

// Op is a comparison operator.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var opText = [...]string{"==", "!=", "<", "<=", ">", ">="}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opText) {
		return opText[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Cmp compares column col with a literal value.
//
// Numeric columns compare numerically.  String columns compare as strings
// against the text of v.  Bool columns support Eq and Ne only.  NaN never
// compares true except under Ne.
func Cmp(col string, op Op, v interface{}) Query {
	return cmp{col, op, v}
}

type cmp struct {
	col string
	op  Op
	v   interface{}
}

func (q cmp) String() string { return fmt.Sprintf("%s %s %v", q.col, q.op, q.v) }

func (q cmp) Mask(t *Table) ([]bool, error) {
	c := t.Col(q.col)
	if c == nil {
		return nil, fmt.Errorf("query %v: no column %s", q, q.col)
	}
	m := make([]bool, t.Len())
	switch c.Kind {
	case String:
		s := toString(q.v)
		for i, x := range c.Strings {
			m[i] = compare(q.op, strings.Compare(x, s))
		}
	case Bool:
		b, err := toBool(q.v)
		if err != nil {
			return nil, fmt.Errorf("query %v: %w", q, err)
		}
		if q.op != Eq && q.op != Ne {
			return nil, fmt.Errorf("query %v: bool column supports == and != only", q)
		}
		for i, x := range c.Bools {
			m[i] = (x == b) == (q.op == Eq)
		}
	default:
		f, err := toFloat(q.v)
		if err != nil {
			return nil, fmt.Errorf("query %v: %w", q, err)
		}
		for i := range m {
			x, _ := c.Float(i)
			switch {
			case math.IsNaN(x) || math.IsNaN(f):
				m[i] = q.op == Ne
			case x < f:
				m[i] = compare(q.op, -1)
			case x > f:
				m[i] = compare(q.op, 1)
			default:
				m[i] = compare(q.op, 0)
			}
		}
	}
	return m, nil
}

func compare(op Op, c int) bool {
	switch op {
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	return false
}

// Func applies f to each value of column col.
func Func(col string, f func(v interface{}) bool) Query {
	return fn{col, f}
}

type fn struct {
	col string
	f   func(interface{}) bool
}

func (q fn) Mask(t *Table) ([]bool, error) {
	c := t.Col(q.col)
	if c == nil {
		return nil, fmt.Errorf("query: no column %s", q.col)
	}
	m := make([]bool, t.Len())
	for i := range m {
		m[i] = q.f(c.Value(i))
	}
	return m, nil
}

// And matches rows matching every query.  And() matches all rows.
func And(qs ...Query) Query { return and(qs) }

type and []Query

func (qs and) Mask(t *Table) ([]bool, error) {
	m := make([]bool, t.Len())
	for i := range m {
		m[i] = true
	}
	for _, q := range qs {
		qm, err := q.Mask(t)
		if err != nil {
			return nil, err
		}
		for i, b := range qm {
			m[i] = m[i] && b
		}
	}
	return m, nil
}

// Or matches rows matching any query.  Or() matches no rows.
func Or(qs ...Query) Query { return or(qs) }

type or []Query

func (qs or) Mask(t *Table) ([]bool, error) {
	m := make([]bool, t.Len())
	for _, q := range qs {
		qm, err := q.Mask(t)
		if err != nil {
			return nil, err
		}
		for i, b := range qm {
			m[i] = m[i] || b
		}
	}
	return m, nil
}

// Not inverts q.
func Not(q Query) Query { return not{q} }

type not struct{ q Query }

func (n not) Mask(t *Table) ([]bool, error) {
	m, err := n.q.Mask(t)
	if err != nil {
		return nil, err
	}
	for i := range m {
		m[i] = !m[i]
	}
	return m, nil
}

// Filter returns the rows of t matching q.  A nil query matches all rows.
func Filter(t *Table, q Query) (*Table, error) {
	if q == nil {
		return t.Clone(), nil
	}
	m, err := q.Mask(t)
	if err != nil {
		return nil, err
	}
	return t.Filter(m)
}

// Count returns the number of rows of t matching q.
func Count(t *Table, q Query) (int, error) {
	m, err := q.Mask(t)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range m {
		if b {
			n++
		}
	}
	return n, nil
}

// ParseCmp parses a single comparison such as "ZQUALITY >= 3" or
// `TELNAME == "MMT"`.  Quotes around the value are removed; the value
// otherwise stays text and is converted against the column at evaluation.
func ParseCmp(s string) (Query, error) {
	// longer operators first so "<=" is not read as "<"
	for _, op := range []Op{Le, Ge, Eq, Ne, Lt, Gt} {
		i := strings.Index(s, op.String())
		if i < 0 {
			continue
		}
		col := strings.TrimSpace(s[:i])
		val := strings.TrimSpace(s[i+len(op.String()):])
		if col == "" || val == "" {
			break
		}
		if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') &&
			val[len(val)-1] == val[0] {
			val = val[1 : len(val)-1]
		}
		return Cmp(col, op, val), nil
	}
	return nil, fmt.Errorf("query: cannot parse %q", s)
}
