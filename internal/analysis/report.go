package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Markdown renders a compact report suitable for display or download.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d (numeric %d, categorical %d)\n", r.Columns, len(r.NumericColumns), len(r.CategoricalColumns)))
	b.WriteString(fmt.Sprintf("Missing values: %d\n\n", r.MissingTotal))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.Count + c.NullCount
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.NullCount) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.Count, missPct))
		if n := c.Numeric; n != nil {
			b.WriteString(fmt.Sprintf(" | min %.4g, 25%% %.4g, 50%% %.4g, 75%% %.4g, max %.4g, mean %.4g, std %.4g",
				n.Min, n.P25, n.P50, n.P75, n.Max, n.Mean, n.Std))
			if n.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", n.OutliersCount, n.OutlierThreshold))
				if n.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", n.OutliersMaxAbsZ))
				}
			}
		}
		if cs := c.Categorical; cs != nil && len(cs.TopValues) > 0 {
			b.WriteString(" | top: ")
			for i, kv := range cs.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if cs.Unique > len(cs.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", cs.Unique))
			}
		}
		if c.First != nil && c.Last != nil {
			b.WriteString(fmt.Sprintf("; range %s .. %s", c.First.Format("2006-01-02"), c.Last.Format("2006-01-02")))
		}
		b.WriteString("\n")
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
