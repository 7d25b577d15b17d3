package chart

import (
	"errors"
	"fmt"
	"io"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an image encoding supported by Render.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

const (
	renderWidth  = 960
	renderHeight = 540
)

var palette = []string{"1f77b4", "ff7f0e", "2ca02c", "d62728", "9467bd", "8c564b", "e377c2", "7f7f7f", "bcbd22", "17becf"}

func seriesColor(i int) drawing.Color {
	return drawing.ColorFromHex(palette[i%len(palette)])
}

// pointStyle renders markers only, with no connecting line.
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{StrokeWidth: 2, StrokeColor: col}
}

// Render draws spec to w.
func Render(spec *Spec, format Format, w io.Writer) error {
	var rp gochart.RendererProvider
	switch format {
	case PNG, "":
		rp = gochart.PNG
	case SVG:
		rp = gochart.SVG
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	title := chartTitle(spec)
	var err error
	switch spec.Kind {
	case Scatter, Line:
		err = renderXY(spec, title, rp, w)
	case Bar, Histogram:
		err = renderBars(spec, title, rp, w)
	default:
		return fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}
	return nil
}

func chartTitle(spec *Spec) string {
	t := spec.X
	if spec.Y != "" {
		t = spec.Y + " by " + spec.X
	}
	if spec.Group != "" {
		t += " (" + spec.Group + ")"
	}
	return t
}

func renderXY(spec *Spec, title string, rp gochart.RendererProvider, w io.Writer) error {
	var series []gochart.Series
	for i, s := range spec.Series {
		if len(s.Points) == 0 {
			continue
		}
		st := lineStyle(seriesColor(i))
		if spec.Kind == Scatter {
			st = pointStyle(seriesColor(i))
		}
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			ys[j] = p.Y
		}
		if spec.XTime {
			ts := make([]time.Time, len(s.Points))
			for j, p := range s.Points {
				ts[j] = time.Unix(0, int64(p.X*1e9)).UTC()
			}
			series = append(series, gochart.TimeSeries{Name: seriesName(s), XValues: ts, YValues: ys, Style: st})
			continue
		}
		xs := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j] = p.X
		}
		series = append(series, gochart.ContinuousSeries{Name: seriesName(s), XValues: xs, YValues: ys, Style: st})
	}
	if len(series) == 0 {
		return errors.New("no plottable points")
	}
	ch := gochart.Chart{
		Title:      title,
		Width:      renderWidth,
		Height:     renderHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: spec.X},
		YAxis:      gochart.YAxis{Name: spec.Y},
		Series:     series,
	}
	if spec.Group != "" {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return ch.Render(rp, w)
}

// renderBars draws bar and histogram specs. Grouped specs are flattened into
// one bar per (group, label) pair, colored by group.
func renderBars(spec *Spec, title string, rp gochart.RendererProvider, w io.Writer) error {
	var bars []gochart.Value
	for i, s := range spec.Series {
		col := seriesColor(i)
		add := func(label string, v float64) {
			if spec.Group != "" {
				label = s.Name + ": " + label
			}
			bars = append(bars, gochart.Value{Label: label, Value: v, Style: gochart.Style{FillColor: col, StrokeColor: col}})
		}
		for _, b := range s.Bars {
			add(b.Label, b.Value)
		}
		for _, b := range s.Bins {
			add(b.label(), float64(b.Count))
		}
	}
	if len(bars) == 0 {
		return errors.New("no plottable values")
	}
	ch := gochart.BarChart{
		Title:      title,
		Width:      renderWidth,
		Height:     renderHeight,
		BarWidth:   barWidth(len(bars)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		XAxis:      gochart.Style{TextRotationDegrees: 45.0},
		YAxis:      gochart.YAxis{Name: spec.Y},
		Bars:       bars,
	}
	return ch.Render(rp, w)
}

func barWidth(n int) int {
	w := (renderWidth - 80) / (n * 2)
	if w < 4 {
		return 4
	}
	if w > 60 {
		return 60
	}
	return w
}

func seriesName(s Series) string {
	if s.Name == "" {
		return "all"
	}
	return s.Name
}
