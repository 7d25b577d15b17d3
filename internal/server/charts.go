package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/KaramelBytes/dataloom/internal/chart"
)

// handleBuildChart validates a chart request against the active table
// @Summary Build chart
// @Description Validates column kinds and grouping and returns plot-ready series per group.
// @Tags charts
// @Accept json
// @Produce json
// @Param request body chart.Request true "Chart request"
// @Success 200 {object} chart.Spec
// @Failure 409 {object} errorBody "No dataset loaded"
// @Failure 422 {object} errorBody "MissingColumn, TypeMismatch or InvalidGrouping"
// @Router /chart [post]
func (s *Server) handleBuildChart(w http.ResponseWriter, r *http.Request) {
	st, err := s.activeTable(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req chart.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	spec, err := s.charts.Build(st.Table, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

// handleRenderChart draws a chart as an image
// @Summary Render chart
// @Tags charts
// @Produce png
// @Produce image/svg+xml
// @Param kind query string true "scatter, line, bar or histogram"
// @Param x query string true "X column"
// @Param y query string false "Y column"
// @Param group query string false "Group column"
// @Param format query string false "png or svg" default(png)
// @Success 200 {file} binary
// @Failure 409 {object} errorBody "No dataset loaded"
// @Failure 422 {object} errorBody "Invalid chart request or nothing to draw"
// @Router /chart/render [get]
func (s *Server) handleRenderChart(w http.ResponseWriter, r *http.Request) {
	st, err := s.activeTable(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	format := chart.Format(q.Get("format"))
	switch format {
	case "":
		format = chart.PNG
	case chart.PNG, chart.SVG:
	default:
		s.fail(w, r, &badRequest{msg: fmt.Sprintf("unknown image format %q", format)})
		return
	}
	spec, err := s.charts.Build(st.Table, chart.Request{
		Kind:  chart.Kind(q.Get("kind")),
		X:     q.Get("x"),
		Y:     q.Get("y"),
		Group: q.Get("group"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(spec, format, &buf); err != nil {
		s.log.Debug("render failed", "kind", spec.Kind, "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "render_failed"})
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(buf.Bytes())
}
