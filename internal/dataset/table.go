package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the inferred (or forced) type of a column.
type ColumnType int

const (
	Unknown ColumnType = iota
	Text
	Numeric
	Boolean
	DateTime
)

func (t ColumnType) String() string {
	switch t {
	case Text:
		return "text"
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case DateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// ParseColumnType maps a config/flag value to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "str", "object":
		return Text, nil
	case "numeric", "number", "float", "int":
		return Numeric, nil
	case "boolean", "bool":
		return Boolean, nil
	case "datetime", "date", "time":
		return DateTime, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown column type %q (use text|numeric|boolean|datetime)", s)
}

// Value is a single cell. Valid is false for missing entries.
type Value struct {
	Raw   string
	Valid bool
}

// Float returns the numeric value of the cell.
func (v Value) Float() (float64, bool) {
	if !v.Valid {
		return 0, false
	}
	return parseFloat(v.Raw)
}

// Bool returns the boolean value of the cell.
func (v Value) Bool() (bool, bool) {
	if !v.Valid {
		return false, false
	}
	return parseBool(v.Raw)
}

// Time returns the datetime value of the cell.
func (v Value) Time() (time.Time, bool) {
	if !v.Valid {
		return time.Time{}, false
	}
	return parseTime(v.Raw)
}

func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return v.Raw
}

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// Missing counts absent entries.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Values {
		if !v.Valid {
			n++
		}
	}
	return n
}

// Table is an in-memory dataset. All columns hold the same number of values.
type Table struct {
	Name    string
	Sheet   string
	Columns []*Column
}

// Rows returns the row count.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the textual cells of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Values[i].String()
	}
	return out
}

// Head returns a table with at most n leading rows. Types are kept from the source.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.Rows() {
		n = t.Rows()
	}
	out := &Table{Name: t.Name, Sheet: t.Sheet, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		vals := make([]Value, n)
		copy(vals, c.Values[:n])
		out.Columns[i] = &Column{Name: c.Name, Type: c.Type, Values: vals}
	}
	return out
}

// validate checks that every column has the same number of values.
func (t *Table) validate() error {
	rows := t.Rows()
	for _, c := range t.Columns {
		if len(c.Values) != rows {
			return fmt.Errorf("column %q has %d values, want %d", c.Name, len(c.Values), rows)
		}
	}
	return nil
}

// newTable builds a table from a header and row-major records. Short records are padded
// with missing values; header names are made unique.
func newTable(header []string, records [][]Value) *Table {
	names := uniqueHeaders(header)
	cols := make([]*Column, len(names))
	for j, name := range names {
		vals := make([]Value, len(records))
		for i, rec := range records {
			if j < len(rec) {
				vals[i] = rec[j]
			}
		}
		cols[j] = &Column{Name: name, Values: vals}
	}
	return &Table{Columns: cols}
}

func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		base := h
		for {
			if _, dup := seen[h]; !dup {
				break
			}
			seen[base]++
			h = fmt.Sprintf("%s.%d", base, seen[base])
		}
		seen[h] = 0
		out[i] = h
	}
	return out
}

// textValue converts a raw cell into a Value, treating missing tokens as absent.
func textValue(s string) Value {
	if isMissing(s) {
		return Value{}
	}
	return Value{Raw: s, Valid: true}
}

// MarshalText renders the type name in JSON and YAML output.
func (t ColumnType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts the names understood by ParseColumnType.
func (t *ColumnType) UnmarshalText(b []byte) error {
	v, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
