package chart

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom/internal/analysis"
)

const sampleCSV = `height,weight,team,day,member
1.6,60,red,2024-01-03,true
1.8,80,blue,2024-01-01,false
1.7,,red,2024-01-02,true
1.9,90,green,,false
,70,,2024-01-05,true
`

func sampleTable(t *testing.T) *analysis.Table {
	t.Helper()
	tbl, err := analysis.Load([]byte(sampleCSV), "people.csv", analysis.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tbl
}

func validationCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	return ve.Code
}

func TestBuildValidation(t *testing.T) {
	tbl := sampleTable(t)
	b := &Builder{}
	tests := []struct {
		name string
		req  Request
		want ErrorCode
	}{
		{"unknown kind", Request{Kind: "pie", X: "height"}, TypeMismatch},
		{"unknown kind with missing x", Request{Kind: "pie", X: "nope"}, MissingColumn},
		{"unknown kind with missing group", Request{Kind: "pie", X: "height", Group: "nope"}, MissingColumn},
		{"missing x", Request{Kind: Scatter, X: "nope", Y: "weight"}, MissingColumn},
		{"missing y", Request{Kind: Line, X: "height", Y: "nope"}, MissingColumn},
		{"y required", Request{Kind: Scatter, X: "height"}, MissingColumn},
		{"missing group", Request{Kind: Bar, X: "team", Group: "nope"}, MissingColumn},
		{"missing column before kind", Request{Kind: Scatter, X: "team", Y: "nope"}, MissingColumn},
		{"scatter text x", Request{Kind: Scatter, X: "team", Y: "weight"}, TypeMismatch},
		{"scatter datetime x", Request{Kind: Scatter, X: "day", Y: "weight"}, TypeMismatch},
		{"line text y", Request{Kind: Line, X: "day", Y: "team"}, TypeMismatch},
		{"bar boolean y", Request{Kind: Bar, X: "team", Y: "member"}, TypeMismatch},
		{"histogram text x", Request{Kind: Histogram, X: "team"}, TypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := b.Build(tbl, tt.req)
			if spec != nil {
				t.Fatalf("unexpected spec: %#v", spec)
			}
			if got := validationCode(t, err); got != tt.want {
				t.Fatalf("code = %s, want %s (%v)", got, tt.want, err)
			}
		})
	}
}

func TestBuildAcceptsCompatibleKinds(t *testing.T) {
	tbl := sampleTable(t)
	b := &Builder{}
	for _, req := range []Request{
		{Kind: Scatter, X: "height", Y: "weight"},
		{Kind: Line, X: "day", Y: "weight"},
		{Kind: Line, X: "height", Y: "weight"},
		{Kind: Bar, X: "team"},
		{Kind: Bar, X: "member", Y: "weight"},
		{Kind: Bar, X: "day"},
		{Kind: Histogram, X: "weight", Y: "team"},
	} {
		if _, err := b.Build(tbl, req); err != nil {
			t.Errorf("%+v: %v", req, err)
		}
	}
}

func TestBuildGroupCapBoundary(t *testing.T) {
	tbl := sampleTable(t)
	// team has red, blue, green and one missing cell: four groups
	if _, err := (&Builder{GroupCap: 4}).Build(tbl, Request{Kind: Bar, X: "team", Group: "team"}); err != nil {
		t.Fatalf("cap == groups should succeed: %v", err)
	}
	_, err := (&Builder{GroupCap: 3}).Build(tbl, Request{Kind: Bar, X: "team", Group: "team"})
	if got := validationCode(t, err); got != InvalidGrouping {
		t.Fatalf("code = %s, want InvalidGrouping", got)
	}
}

func TestBuildPartitionsFirstSeenOrder(t *testing.T) {
	tbl := sampleTable(t)
	spec, err := (&Builder{}).Build(tbl, Request{Kind: Scatter, X: "height", Y: "weight", Group: "team"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Partition{
		{Key: "red", Rows: []int{0, 2}},
		{Key: "blue", Rows: []int{1}},
		{Key: "green", Rows: []int{3}},
		{Key: MissingGroup, Rows: []int{4}},
	}
	if !reflect.DeepEqual(spec.Partitions, want) {
		t.Fatalf("partitions = %#v", spec.Partitions)
	}
	if len(spec.Series) != 4 || spec.Series[0].Name != "red" {
		t.Fatalf("series = %#v", spec.Series)
	}
	// row 2 has no weight and row 4 has no height
	if got := spec.Series[0].Points; !reflect.DeepEqual(got, []Point{{X: 1.6, Y: 60}}) {
		t.Fatalf("red points = %#v", got)
	}
	if len(spec.Series[3].Points) != 0 {
		t.Fatalf("missing-group points = %#v", spec.Series[3].Points)
	}
}

func TestBuildWithoutGroupHasSinglePartition(t *testing.T) {
	tbl := sampleTable(t)
	spec, err := (&Builder{}).Build(tbl, Request{Kind: Line, X: "day", Y: "weight"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(spec.Partitions) != 1 || spec.Partitions[0].Key != "" || len(spec.Partitions[0].Rows) != 5 {
		t.Fatalf("partitions = %#v", spec.Partitions)
	}
	if !spec.XTime {
		t.Fatalf("datetime x not flagged")
	}
	pts := spec.Series[0].Points
	if len(pts) != 3 {
		t.Fatalf("points = %#v", pts)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i-1].X > pts[i].X {
			t.Fatalf("line points not sorted by x: %#v", pts)
		}
	}
	if pts[0].Y != 80 || pts[2].Y != 70 {
		t.Fatalf("points = %#v", pts)
	}
}

func TestBarAggregation(t *testing.T) {
	tbl := sampleTable(t)
	b := &Builder{}
	counts, err := b.Build(tbl, Request{Kind: Bar, X: "team"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantCounts := []Bar{{"red", 2}, {"blue", 1}, {"green", 1}, {MissingGroup, 1}}
	if !reflect.DeepEqual(counts.Series[0].Bars, wantCounts) {
		t.Fatalf("counts = %#v", counts.Series[0].Bars)
	}
	sums, err := b.Build(tbl, Request{Kind: Bar, X: "member", Y: "weight"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantSums := []Bar{{"true", 130}, {"false", 170}}
	if !reflect.DeepEqual(sums.Series[0].Bars, wantSums) {
		t.Fatalf("sums = %#v", sums.Series[0].Bars)
	}
}

func TestHistogramBins(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("v\n")
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	tbl, err := analysis.Load([]byte(sb.String()), "h.csv", analysis.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	spec, err := (&Builder{}).Build(tbl, Request{Kind: Histogram, X: "v"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bins := spec.Series[0].Bins
	if len(bins) != 5 {
		t.Fatalf("sturges bins = %d, want 5", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 16 || bins[0].Lo != 0 || bins[4].Hi != 15 {
		t.Fatalf("bins = %#v", bins)
	}
	fixed, _ := (&Builder{Bins: 3}).Build(tbl, Request{Kind: Histogram, X: "v"})
	if len(fixed.Series[0].Bins) != 3 {
		t.Fatalf("fixed bins = %#v", fixed.Series[0].Bins)
	}
}

func TestRenderFormats(t *testing.T) {
	tbl := sampleTable(t)
	spec, err := (&Builder{}).Build(tbl, Request{Kind: Scatter, X: "height", Y: "weight"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var png bytes.Buffer
	if err := Render(spec, PNG, &png); err != nil {
		t.Fatalf("Render png: %v", err)
	}
	if !bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("not a png")
	}
	bars, _ := (&Builder{}).Build(tbl, Request{Kind: Bar, X: "team"})
	var svg bytes.Buffer
	if err := Render(bars, SVG, &svg); err != nil {
		t.Fatalf("Render svg: %v", err)
	}
	if !strings.Contains(svg.String(), "<svg") {
		t.Fatalf("not an svg")
	}
	if err := Render(spec, "gif", &png); err == nil {
		t.Fatalf("expected format error")
	}
}
