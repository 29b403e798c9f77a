package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// Report is a markdown-friendly view of one analyzed upload.
type Report struct {
	Name           string
	Sheet          string
	Preview        *dataset.Table
	Summary        Summary
	Profile        []ColumnProfile
	Recommendation string
}

// Markdown renders the report as sectioned plain text.
func (r *Report) Markdown() string {
	var b strings.Builder
	if r.Preview != nil && len(r.Preview.Columns) > 0 {
		b.WriteString("[PREVIEW]\n")
		writePreview(&b, r.Preview)
		b.WriteString("\n")
	}

	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Sheet != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", r.Sheet))
	}
	b.WriteString("\n")
	b.WriteString(r.Summary.Text())
	b.WriteString("\n")

	if len(r.Profile) > 0 {
		b.WriteString("\n[COLUMN PROFILE]\n")
		for _, c := range r.Profile {
			total := c.NonNull + c.Missing
			missPct := 0.0
			if total > 0 {
				missPct = float64(c.Missing) * 100.0 / float64(total)
			}
			b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Type, c.NonNull, missPct))
			switch c.Type {
			case dataset.Numeric:
				if c.NonNull > 0 {
					b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
				}
				if c.OutlierThreshold > 0 {
					b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				}
			case dataset.DateTime:
				if c.Earliest != "" {
					b.WriteString(fmt.Sprintf("; range %s .. %s", c.Earliest, c.Latest))
				}
			case dataset.Text, dataset.Boolean:
				if len(c.TopValues) > 0 {
					b.WriteString("; top: ")
					for i, kv := range c.TopValues {
						if i > 0 {
							b.WriteString(", ")
						}
						b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
					}
					if c.Unique > len(c.TopValues) {
						b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
					}
				}
			}
			b.WriteString("\n")
		}
	}

	if r.Recommendation != "" {
		b.WriteString("\n[RECOMMENDATIONS]\n")
		b.WriteString(strings.TrimSpace(r.Recommendation))
		b.WriteString("\n")
	}
	return b.String()
}

func writePreview(b *strings.Builder, t *dataset.Table) {
	names := t.ColumnNames()
	for i := range names {
		names[i] = safeVal(safeName(names[i]))
	}
	b.WriteString("| " + strings.Join(names, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(names)) + "\n")
	for i := 0; i < t.Rows(); i++ {
		row := t.Row(i)
		for j := range row {
			row[j] = safeVal(row[j])
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
