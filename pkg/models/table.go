package models

import (
	"fmt"
	"strconv"
	"time"
)

// Table is a named query result: ordered column names and rows of values.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// ColumnIndex returns the position of column, or -1.
func (t *Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Head returns a copy of the table truncated to at most n rows.
func (t *Table) Head(n int) Table {
	out := Table{Name: t.Name, Columns: t.Columns, Rows: t.Rows}
	if n >= 0 && n < len(t.Rows) {
		out.Rows = t.Rows[:n]
	}
	return out
}

// String formats the cell at row, col for display or CSV output.
func (t *Table) String(row, col int) string {
	return FormatValue(t.Rows[row][col])
}

// Float converts the cell at row, col to float64.
func (t *Table) Float(row, col int) (float64, error) {
	switch v := t.Rows[row][col].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("column %s holds %T, not a number", t.Columns[col], v)
	}
}

// FormatValue renders a single value as text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.Format(RateTimeLayout)
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
