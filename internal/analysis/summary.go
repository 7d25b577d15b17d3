package analysis

import (
	"math"
	"sort"
	"time"
)

// SummaryOptions controls optional parts of a Report.
type SummaryOptions struct {
	// TopN limits Categorical.TopValues; 0 means 8.
	TopN int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). Counts |z| > threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultSummaryOptions returns reasonable defaults for dataset summaries.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{TopN: 8, OutlierThreshold: 3.5}
}

// Report is the summary of a Table.
type Report struct {
	Name               string          `json:"name" yaml:"name"`
	Rows               int             `json:"rows" yaml:"rows"`
	Columns            int             `json:"columns" yaml:"columns"`
	NumericColumns     []string        `json:"numeric_columns" yaml:"numeric_columns"`
	CategoricalColumns []string        `json:"categorical_columns" yaml:"categorical_columns"`
	MissingTotal       int             `json:"missing_total" yaml:"missing_total"`
	Cols               []ColumnSummary `json:"column_summaries" yaml:"column_summaries"`
	Corr               *CorrMatrix     `json:"correlations,omitempty" yaml:"correlations,omitempty"`
}

// ColumnSummary holds kind-appropriate statistics for one column.
type ColumnSummary struct {
	Name        string            `json:"name" yaml:"name"`
	Kind        Kind              `json:"kind" yaml:"kind"`
	Count       int               `json:"count" yaml:"count"`
	NullCount   int               `json:"null_count" yaml:"null_count"`
	Numeric     *NumericStats     `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty" yaml:"categorical,omitempty"`
	// First and Last bound datetime columns.
	First *time.Time `json:"first,omitempty" yaml:"first,omitempty"`
	Last  *time.Time `json:"last,omitempty" yaml:"last,omitempty"`
}

// NumericStats uses the population standard deviation.
type NumericStats struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	Min  float64 `json:"min" yaml:"min"`
	P25  float64 `json:"25%" yaml:"25%"`
	P50  float64 `json:"50%" yaml:"50%"`
	P75  float64 `json:"75%" yaml:"75%"`
	Max  float64 `json:"max" yaml:"max"`
	// Outliers (robust Z via MAD), set when requested.
	OutliersCount    int     `json:"outliers_count,omitempty" yaml:"outliers_count,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty" yaml:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty" yaml:"outlier_threshold,omitempty"`
}

// CategoricalStats breaks frequency ties by first appearance.
type CategoricalStats struct {
	Unique    int             `json:"unique" yaml:"unique"`
	Top       string          `json:"top" yaml:"top"`
	Freq      int             `json:"freq" yaml:"freq"`
	TopValues []CategoryCount `json:"top_values" yaml:"top_values"`
}

type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Values  [][]float64 `json:"values" yaml:"values"` // row-major, Values[i][j]
}

// ByName returns the summaries keyed by column name.
func (r *Report) ByName() map[string]ColumnSummary {
	out := make(map[string]ColumnSummary, len(r.Cols))
	for _, c := range r.Cols {
		out[c.Name] = c
	}
	return out
}

// Column looks up one column summary.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// Summarize computes per-column statistics. It reads the Table only and is
// deterministic: the same Table always yields the same Report.
func Summarize(t *Table, opt SummaryOptions) *Report {
	rep := &Report{
		Name:               t.Name(),
		Rows:               t.NumRows(),
		Columns:            t.NumCols(),
		NumericColumns:     []string{},
		CategoricalColumns: []string{},
	}
	topN := opt.TopN
	if topN <= 0 {
		topN = 8
	}
	var numCols []int
	for j, c := range t.cols {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind}
		for _, v := range c.Values {
			if v == "" {
				s.NullCount++
			} else {
				s.Count++
			}
		}
		rep.MissingTotal += s.NullCount
		switch c.Kind {
		case KindNumeric:
			rep.NumericColumns = append(rep.NumericColumns, c.Name)
			numCols = append(numCols, j)
			s.Numeric = numericStats(numericValues(c.Values), opt)
		default:
			rep.CategoricalColumns = append(rep.CategoricalColumns, c.Name)
			s.Categorical = categoricalStats(c.Values, topN)
			if c.Kind == KindDatetime {
				s.First, s.Last = timeBounds(c.Values)
			}
		}
		rep.Cols = append(rep.Cols, s)
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(t, numCols)
	}
	return rep
}

// numericValues parses the non-missing cells of a numeric column.
func numericValues(vals []string) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v == "" {
			continue
		}
		if x, ok := ParseFloat(v); ok {
			out = append(out, x)
		}
	}
	return out
}

func numericStats(xs []float64, opt SummaryOptions) *NumericStats {
	n := len(xs)
	if n == 0 {
		return nil
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	st := &NumericStats{
		Mean: mean,
		Std:  math.Sqrt(ss / float64(n)),
		Min:  sorted[0],
		P25:  quantile(sorted, 0.25),
		P50:  quantile(sorted, 0.5),
		P75:  quantile(sorted, 0.75),
		Max:  sorted[n-1],
	}
	if opt.Outliers && n >= 8 {
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		median, mad := medianMAD(sorted)
		st.OutlierThreshold = thr
		if mad > 0 {
			for _, v := range sorted {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					st.OutliersCount++
				}
				if az > st.OutliersMaxAbsZ {
					st.OutliersMaxAbsZ = az
				}
			}
		}
	}
	return st
}

func categoricalStats(vals []string, topN int) *CategoricalStats {
	counts := map[string]int{}
	var order []string
	for _, v := range vals {
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	st := &CategoricalStats{Unique: len(order), TopValues: []CategoryCount{}}
	if len(order) == 0 {
		return st
	}
	tops := make([]CategoryCount, len(order))
	for i, v := range order {
		tops[i] = CategoryCount{Value: v, Count: counts[v]}
	}
	// stable keeps first-seen order among equal counts
	sort.SliceStable(tops, func(i, j int) bool { return tops[i].Count > tops[j].Count })
	st.Top, st.Freq = tops[0].Value, tops[0].Count
	if len(tops) > topN {
		tops = tops[:topN]
	}
	st.TopValues = tops
	return st
}

func timeBounds(vals []string) (first, last *time.Time) {
	for _, v := range vals {
		tm, ok := parseTimeMaybe(v)
		if !ok {
			continue
		}
		if first == nil || tm.Before(*first) {
			f := tm
			first = &f
		}
		if last == nil || tm.After(*last) {
			l := tm
			last = &l
		}
	}
	return first, last
}

// correlations uses pairwise-complete rows for each pair of numeric columns.
func correlations(t *Table, numCols []int) *CorrMatrix {
	n := len(numCols)
	names := make([]string, n)
	parsed := make([][]float64, n)
	present := make([][]bool, n)
	for a, j := range numCols {
		c := t.cols[j]
		names[a] = c.Name
		parsed[a] = make([]float64, t.rows)
		present[a] = make([]bool, t.rows)
		for i, v := range c.Values {
			if x, ok := ParseFloat(v); ok && v != "" {
				parsed[a][i] = x
				present[a][i] = true
			}
		}
	}
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var cnt, sumX, sumY, sumXX, sumYY, sumXY float64
			for i := 0; i < t.rows; i++ {
				if !present[a][i] || !present[b][i] {
					continue
				}
				x, y := parsed[a][i], parsed[b][i]
				cnt++
				sumX += x
				sumY += y
				sumXX += x * x
				sumYY += y * y
				sumXY += x * y
			}
			var r float64
			if cnt >= 2 {
				denom := math.Sqrt((cnt*sumXX - sumX*sumX) * (cnt*sumYY - sumY*sumY))
				if denom != 0 {
					r = (cnt*sumXY - sumX*sumY) / denom
				}
			}
			if r > 1 {
				r = 1
			} else if r < -1 {
				r = -1
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			mat[a][b], mat[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

// medianMAD computes median and MAD (median absolute deviation) of sorted values.
func medianMAD(sorted []float64) (median, mad float64) {
	if len(sorted) == 0 {
		return 0, 0
	}
	median = quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between order statistics at q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
