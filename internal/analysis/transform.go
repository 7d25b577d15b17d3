package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Filter returns a new Table holding the rows whose column equals value.
// Numeric columns compare by parsed value, so "2" matches "2.0".
func Filter(t *Table, column, value string) (*Table, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("filter: unknown column %q", column)
	}
	want := normalizeCell(value)
	wantNum, wantIsNum := ParseFloat(want)
	var rows []int
	for i, v := range c.Values {
		match := v == want
		if !match && c.Kind == KindNumeric && wantIsNum && v != "" {
			if x, ok := ParseFloat(v); ok && x == wantNum {
				match = true
			}
		}
		if match {
			rows = append(rows, i)
		}
	}
	return t.pick(rows), nil
}

// Sort returns a new Table ordered by column. The sort is stable and missing
// cells always go last.
func Sort(t *Table, column string, ascending bool) (*Table, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("sort: unknown column %q", column)
	}
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	less := cellLess(c.Kind)
	sort.SliceStable(rows, func(a, b int) bool {
		va, vb := c.Values[rows[a]], c.Values[rows[b]]
		if va == "" || vb == "" {
			return va != "" && vb == ""
		}
		if ascending {
			return less(va, vb)
		}
		return less(vb, va)
	})
	return t.pick(rows), nil
}

// Aggregations accepted by Group.
const (
	AggSum   = "sum"
	AggMean  = "mean"
	AggCount = "count"
	AggMin   = "min"
	AggMax   = "max"
)

// Group returns one row per distinct non-missing value of by, in ascending
// order, with one column per entry of aggs (column name -> aggregation).
// Aggregated columns keep their names and the table's column order. Missing
// cells are skipped: sum and count of nothing are 0, mean, min and max are missing.
func Group(t *Table, by string, aggs map[string]string) (*Table, error) {
	byCol, ok := t.Column(by)
	if !ok {
		return nil, fmt.Errorf("group: unknown column %q", by)
	}
	if len(aggs) == 0 {
		return nil, fmt.Errorf("group: no aggregations given")
	}
	names := make([]string, 0, len(aggs))
	for name := range aggs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("group: unknown column %q", name)
		}
		if name == by {
			return nil, fmt.Errorf("group: cannot aggregate the grouping column %q", by)
		}
		switch agg := strings.ToLower(strings.TrimSpace(aggs[name])); agg {
		case AggSum, AggMean:
			if c.Kind != KindNumeric {
				return nil, fmt.Errorf("group: %s needs a numeric column, %q is %s", agg, name, c.Kind)
			}
		case AggCount, AggMin, AggMax:
		default:
			return nil, fmt.Errorf("group: unknown aggregation %q for %q (use sum, mean, count, min or max)", aggs[name], name)
		}
	}

	var keys []string
	members := map[string][]int{}
	for i, v := range byCol.Values {
		if v == "" {
			continue
		}
		if _, seen := members[v]; !seen {
			keys = append(keys, v)
		}
		members[v] = append(members[v], i)
	}
	less := cellLess(byCol.Kind)
	sort.SliceStable(keys, func(a, b int) bool { return less(keys[a], keys[b]) })

	out := []Column{{Name: by, Kind: byCol.Kind, Values: keys}}
	for _, c := range t.cols {
		agg, ok := aggs[c.Name]
		if !ok || c.Name == by {
			continue
		}
		agg = strings.ToLower(strings.TrimSpace(agg))
		col := Column{Name: c.Name, Kind: KindNumeric, Values: make([]string, len(keys))}
		if agg == AggMin || agg == AggMax {
			col.Kind = c.Kind
		}
		for g, key := range keys {
			col.Values[g] = aggregate(c, members[key], agg)
		}
		out = append(out, col)
	}
	return NewTable(t.Name(), out)
}

func aggregate(c Column, rows []int, agg string) string {
	var (
		n    int
		sum  float64
		best string
	)
	less := cellLess(c.Kind)
	for _, r := range rows {
		v := c.Values[r]
		if v == "" {
			continue
		}
		n++
		switch agg {
		case AggSum, AggMean:
			x, _ := ParseFloat(v)
			sum += x
		case AggMin:
			if best == "" || less(v, best) {
				best = v
			}
		case AggMax:
			if best == "" || less(best, v) {
				best = v
			}
		}
	}
	switch agg {
	case AggCount:
		return strconv.Itoa(n)
	case AggSum:
		return formatNumber(sum)
	case AggMean:
		if n == 0 {
			return ""
		}
		return formatNumber(sum / float64(n))
	}
	return best
}

func formatNumber(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

func cellLess(k Kind) func(a, b string) bool {
	switch k {
	case KindNumeric:
		return func(a, b string) bool {
			x, _ := ParseFloat(a)
			y, _ := ParseFloat(b)
			return x < y
		}
	case KindDatetime:
		return func(a, b string) bool {
			x, _ := parseTimeMaybe(a)
			y, _ := parseTimeMaybe(b)
			return x.Before(y)
		}
	case KindBoolean:
		return func(a, b string) bool {
			x, _ := parseBool(a)
			y, _ := parseBool(b)
			return !x && y
		}
	}
	return func(a, b string) bool { return strings.Compare(a, b) < 0 }
}
