package analysis

import (
	"strconv"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// Metric labels, in display order.
const (
	MetricRows    = "Number of rows"
	MetricColumns = "Number of columns"
	MetricNames   = "Columns"
	MetricTypes   = "Data types"
	MetricMissing = "Missing values"
)

// ColumnFact is the per-column part of a Summary.
type ColumnFact struct {
	Name    string             `json:"name"`
	Type    dataset.ColumnType `json:"type"`
	Missing int                `json:"missing"`
}

// Summary holds the five facts derived from a table.
type Summary struct {
	RowCount    int          `json:"row_count"`
	ColumnCount int          `json:"column_count"`
	Columns     []ColumnFact `json:"columns"`
}

// Metric is one row of the two-column summary table.
type Metric struct {
	Name        string `json:"metric"`
	Description string `json:"description"`
}

// Summarize derives the summary of t. It never fails; a nil table yields zero counts.
func Summarize(t *dataset.Table) Summary {
	s := Summary{RowCount: t.Rows(), Columns: []ColumnFact{}}
	if t == nil {
		return s
	}
	s.ColumnCount = len(t.Columns)
	for _, c := range t.Columns {
		s.Columns = append(s.Columns, ColumnFact{Name: c.Name, Type: c.Type, Missing: c.Missing()})
	}
	return s
}

// ColumnNames joins the column names with ", ".
func (s Summary) ColumnNames() string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// Metrics returns the (metric, description) rows in display order.
func (s Summary) Metrics() []Metric {
	types := make([][2]string, len(s.Columns))
	missing := make([][2]string, len(s.Columns))
	for i, c := range s.Columns {
		types[i] = [2]string{c.Name, c.Type.String()}
		missing[i] = [2]string{c.Name, strconv.Itoa(c.Missing)}
	}
	return []Metric{
		{MetricRows, strconv.Itoa(s.RowCount)},
		{MetricColumns, strconv.Itoa(s.ColumnCount)},
		{MetricNames, s.ColumnNames()},
		{MetricTypes, alignPairs(types)},
		{MetricMissing, alignPairs(missing)},
	}
}

// Text renders the metrics as an aligned two-column text table. This is the text
// submitted to the model.
func (s Summary) Text() string {
	metrics := s.Metrics()
	width := len("Metric")
	for _, m := range metrics {
		if len(m.Name) > width {
			width = len(m.Name)
		}
	}
	var b strings.Builder
	writeRow := func(name, desc string) {
		lines := strings.Split(desc, "\n")
		b.WriteString(pad(name, width))
		b.WriteString("  ")
		b.WriteString(lines[0])
		b.WriteString("\n")
		for _, l := range lines[1:] {
			b.WriteString(strings.Repeat(" ", width+2))
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
	writeRow("Metric", "Description")
	for _, m := range metrics {
		writeRow(m.Name, m.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// alignPairs renders "name  value" lines with the values in one column.
func alignPairs(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = pad(r[0], width) + "  " + r[1]
	}
	return strings.Join(lines, "\n")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
