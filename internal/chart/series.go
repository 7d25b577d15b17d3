package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/dataloom/internal/analysis"
)

// Series holds the plot-ready values of one partition. Exactly one of
// Points, Bars or Bins is populated depending on the chart kind.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points,omitempty"`
	Bars   []Bar   `json:"bars,omitempty"`
	Bins   []Bin   `json:"bins,omitempty"`
}

// Point is an (x, y) pair. Datetime x values are Unix seconds.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bar is the aggregate of one x label: the y sum, or the row count when no y is set.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Bin is a half-open histogram interval [Lo, Hi); the last bin is closed.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

func buildSeries(t *analysis.Table, spec *Spec, bins int) []Series {
	x, _ := t.Column(spec.X)
	var y analysis.Column
	if spec.Y != "" {
		y, _ = t.Column(spec.Y)
	}
	out := make([]Series, 0, len(spec.Partitions))
	for _, p := range spec.Partitions {
		s := Series{Name: p.Key}
		switch spec.Kind {
		case Scatter, Line:
			s.Points = points(x, y, p.Rows, spec.XTime)
			if spec.Kind == Line {
				sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].X < s.Points[j].X })
			}
		case Bar:
			s.Bars = bars(x, y, spec.Y != "", p.Rows)
		case Histogram:
			s.Bins = histogram(x, p.Rows, bins)
		}
		out = append(out, s)
	}
	return out
}

// points keeps rows where both coordinates parse.
func points(x, y analysis.Column, rows []int, xTime bool) []Point {
	pts := make([]Point, 0, len(rows))
	for _, r := range rows {
		yv, ok := analysis.ParseFloat(y.Values[r])
		if !ok {
			continue
		}
		var xv float64
		if xTime {
			tm, ok := analysis.ParseTime(x.Values[r])
			if !ok {
				continue
			}
			xv = float64(tm.UnixNano()) / 1e9
		} else {
			if xv, ok = analysis.ParseFloat(x.Values[r]); !ok {
				continue
			}
		}
		pts = append(pts, Point{X: xv, Y: yv})
	}
	return pts
}

func bars(x, y analysis.Column, sum bool, rows []int) []Bar {
	idx := map[string]int{}
	var out []Bar
	for _, r := range rows {
		label := x.Values[r]
		if label == "" {
			label = MissingGroup
		}
		v := 1.0
		if sum {
			f, ok := analysis.ParseFloat(y.Values[r])
			if !ok {
				continue
			}
			v = f
		}
		i, seen := idx[label]
		if !seen {
			i = len(out)
			idx[label] = i
			out = append(out, Bar{Label: label})
		}
		out[i].Value += v
	}
	return out
}

func histogram(x analysis.Column, rows []int, bins int) []Bin {
	var vals []float64
	for _, r := range rows {
		if v, ok := analysis.ParseFloat(x.Values[r]); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = sturges(len(vals))
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// sturges returns ceil(log2 n) + 1.
func sturges(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

func (b Bin) label() string { return fmt.Sprintf("%.3g-%.3g", b.Lo, b.Hi) }
