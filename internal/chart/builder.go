package chart

import (
	"fmt"

	"github.com/KaramelBytes/dataloom/internal/analysis"
)

// Kind is the requested chart type.
type Kind string

const (
	Scatter   Kind = "scatter"
	Line      Kind = "line"
	Bar       Kind = "bar"
	Histogram Kind = "histogram"
)

// DefaultGroupCap bounds the number of distinct group values drawn in one chart.
const DefaultGroupCap = 20

// MissingGroup labels rows whose group cell is empty.
const MissingGroup = "(missing)"

// Request names the columns to plot.
type Request struct {
	Kind  Kind   `json:"kind"`
	X     string `json:"x"`
	Y     string `json:"y,omitempty"`
	Group string `json:"group,omitempty"`
}

// ErrorCode classifies a rejected Request.
type ErrorCode string

const (
	MissingColumn   ErrorCode = "MissingColumn"
	TypeMismatch    ErrorCode = "TypeMismatch"
	InvalidGrouping ErrorCode = "InvalidGrouping"
)

// ValidationError reports why a Request cannot be charted.
type ValidationError struct {
	Code   ErrorCode
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column %q: %s", e.Code, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Partition is the set of row indices sharing one group value.
type Partition struct {
	Key  string `json:"key"`
	Rows []int  `json:"rows"`
}

// Spec is a validated chart description. Builders do not render.
type Spec struct {
	Kind       Kind        `json:"kind"`
	X          string      `json:"x"`
	Y          string      `json:"y,omitempty"`
	Group      string      `json:"group,omitempty"`
	XTime      bool        `json:"x_time,omitempty"`
	Partitions []Partition `json:"partitions"`
	Series     []Series    `json:"series"`
}

// Builder validates chart requests against a Table.
type Builder struct {
	// GroupCap is the largest accepted number of distinct group values; 0 means DefaultGroupCap.
	GroupCap int
	// Bins is the histogram bin count; 0 picks Sturges' rule per partition.
	Bins int
}

// Build checks column existence, then kind compatibility, then grouping, and
// returns a Spec with row partitions and plot-ready series.
func (b *Builder) Build(t *analysis.Table, req Request) (*Spec, error) {
	if req.Kind == Histogram {
		req.Y = ""
	}

	xKind, ok := t.KindOf(req.X)
	if !ok {
		return nil, &ValidationError{Code: MissingColumn, Column: req.X, Reason: "x column not found"}
	}
	var yKind analysis.Kind
	if req.Y != "" {
		if yKind, ok = t.KindOf(req.Y); !ok {
			return nil, &ValidationError{Code: MissingColumn, Column: req.Y, Reason: "y column not found"}
		}
	} else if req.Kind == Scatter || req.Kind == Line {
		return nil, &ValidationError{Code: MissingColumn, Reason: fmt.Sprintf("y column is required for %s charts", req.Kind)}
	}
	if req.Group != "" {
		if _, ok := t.KindOf(req.Group); !ok {
			return nil, &ValidationError{Code: MissingColumn, Column: req.Group, Reason: "group column not found"}
		}
	}

	switch req.Kind {
	case Scatter, Line, Bar, Histogram:
	default:
		return nil, &ValidationError{Code: TypeMismatch, Reason: fmt.Sprintf("unknown chart kind %q", req.Kind)}
	}

	if err := checkKinds(req, xKind, yKind); err != nil {
		return nil, err
	}

	parts, err := b.partition(t, req.Group)
	if err != nil {
		return nil, err
	}
	spec := &Spec{
		Kind:       req.Kind,
		X:          req.X,
		Y:          req.Y,
		Group:      req.Group,
		XTime:      req.Kind == Line && xKind == analysis.KindDatetime,
		Partitions: parts,
	}
	spec.Series = buildSeries(t, spec, b.Bins)
	return spec, nil
}

func checkKinds(req Request, x, y analysis.Kind) error {
	mismatch := func(col string, want string, got analysis.Kind) error {
		return &ValidationError{Code: TypeMismatch, Column: col,
			Reason: fmt.Sprintf("%s chart needs %s, column is %s", req.Kind, want, got)}
	}
	switch req.Kind {
	case Scatter:
		if x != analysis.KindNumeric {
			return mismatch(req.X, "numeric x", x)
		}
		if y != analysis.KindNumeric {
			return mismatch(req.Y, "numeric y", y)
		}
	case Line:
		if x != analysis.KindNumeric && x != analysis.KindDatetime {
			return mismatch(req.X, "numeric or datetime x", x)
		}
		if y != analysis.KindNumeric {
			return mismatch(req.Y, "numeric y", y)
		}
	case Bar:
		if req.Y != "" && y != analysis.KindNumeric {
			return mismatch(req.Y, "numeric y", y)
		}
	case Histogram:
		if x != analysis.KindNumeric {
			return mismatch(req.X, "numeric x", x)
		}
	}
	return nil
}

// partition splits rows by the literal group cell, in first-seen order.
func (b *Builder) partition(t *analysis.Table, group string) ([]Partition, error) {
	n := t.NumRows()
	if group == "" {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return []Partition{{Key: "", Rows: rows}}, nil
	}
	limit := b.GroupCap
	if limit <= 0 {
		limit = DefaultGroupCap
	}
	col, _ := t.Column(group)
	pos := map[string]int{}
	var parts []Partition
	for i, v := range col.Values {
		key := v
		if key == "" {
			key = MissingGroup
		}
		p, seen := pos[key]
		if !seen {
			if len(parts) == limit {
				return nil, &ValidationError{Code: InvalidGrouping, Column: group,
					Reason: fmt.Sprintf("more than %d distinct values", limit)}
			}
			p = len(parts)
			pos[key] = p
			parts = append(parts, Partition{Key: key})
		}
		parts[p].Rows = append(parts[p].Rows, i)
	}
	if len(parts) == 0 {
		parts = []Partition{{Key: "", Rows: []int{}}}
	}
	return parts, nil
}
