// Public domain.

package catalog

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sagasurvey/saga/table"
)

// sqliteTable is the table name used in SQLite catalog files.
const sqliteTable = "catalog"

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func sqlType(k table.Kind) string {
	switch k {
	case table.Float:
		return "REAL"
	case table.Int:
		return "INTEGER"
	case table.Bool:
		return "BOOLEAN"
	}
	return "TEXT"
}

// kindOf maps a declared column type back to a kind.
func kindOf(decl string) table.Kind {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "BOOL"):
		return table.Bool
	case strings.Contains(d, "INT"):
		return table.Int
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"),
		strings.Contains(d, "DOUB"), strings.Contains(d, "NUM"):
		return table.Float
	}
	return table.String
}

func writeSQLite(path string, t *table.Table) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	cols := t.Cols()
	defs := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c.Name) + " " + sqlType(c.Kind)
		marks[i] = "?"
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	create := fmt.Sprintf("CREATE TABLE %s (%s)", sqliteTable, strings.Join(defs, ", "))
	if _, err = tx.Exec(create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		sqliteTable, strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	args := make([]interface{}, len(cols))
	for row := 0; row < t.Len(); row++ {
		for i, c := range cols {
			v := c.Value(row)
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				v = nil
			}
			args[i] = v
		}
		if _, err = stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert row %d: %w", row, err)
		}
	}
	return tx.Commit()
}

func readSQLite(path string) (*table.Table, error) {
	// opening creates missing files
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT * FROM " + sqliteTable)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: query: %w", path, err)
	}
	defer rows.Close()
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: columns: %w", path, err)
	}
	cols := make([]*table.Column, len(types))
	for i, ct := range types {
		cols[i], _ = table.Filled(ct.Name(), kindOf(ct.DatabaseTypeName()), 0, nil)
	}
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err = rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("catalog: %s: scan row: %w", path, err)
		}
		for i, c := range cols {
			if err = appendSQL(c, values[i]); err != nil {
				return nil, fmt.Errorf("catalog: %s: %w", path, err)
			}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: %s: iterate: %w", path, err)
	}
	return table.New(cols...)
}

// appendSQL appends a scanned value.  NULL reads as NaN, 0, "" or false.
func appendSQL(c *table.Column, v interface{}) error {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	n := c.Len()
	switch c.Kind {
	case table.Float:
		c.Floats = append(c.Floats, math.NaN())
	case table.Int:
		c.Ints = append(c.Ints, 0)
	case table.String:
		c.Strings = append(c.Strings, "")
	case table.Bool:
		c.Bools = append(c.Bools, false)
	}
	if v == nil {
		return nil
	}
	return c.Set(n, v)
}
