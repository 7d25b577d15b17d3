package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dataloom/internal/analysis"
	"github.com/KaramelBytes/dataloom/internal/session"
)

// UploadResponse reports the table installed by an upload.
type UploadResponse struct {
	Table  *TableInfo `json:"table"`
	Cached bool       `json:"cached"`
}

// handleUpload loads an uploaded file into the session
// @Summary Upload dataset
// @Description Parses a CSV, TSV, XLSX or XLS file and makes it the session's active table. On failure the previous table is kept.
// @Tags data
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Data file"
// @Param sheet query string false "Worksheet name"
// @Param sheet_index query int false "1-based worksheet index"
// @Param delimiter query string false "CSV delimiter (use tab for tab)"
// @Param decimal query string false "Decimal separator"
// @Param thousands query string false "Thousands separator"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} errorBody "Empty or malformed file"
// @Failure 413 {object} errorBody "File too large"
// @Failure 415 {object} errorBody "Unsupported format"
// @Router /upload [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	st := s.session(w, r)
	opt, err := s.loadOptions(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit := s.cfg.MaxUploadBytes()
	if r.ContentLength > limit {
		s.fail(w, r, &http.MaxBytesError{Limit: limit})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.fail(w, r, err)
			return
		}
		s.fail(w, r, &badRequest{msg: `multipart field "file" is required`})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	key := session.Key("load", hdr.Filename, fmt.Sprintf("%+v", opt), string(data))
	tbl, cached, err := s.tables.Get(key, func() (*analysis.Table, error) {
		return analysis.Load(data, hdr.Filename, opt)
	})
	s.recordLoad(r.Context(), st.ID, hdr.Filename, tbl, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err = s.sessions.InstallTable(st.ID, tbl, hdr.Filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("dataset loaded", "session", st.ID, "file", hdr.Filename, "rows", tbl.NumRows(), "columns", tbl.NumCols(), "cached", cached)
	writeJSON(w, http.StatusOK, UploadResponse{Table: tableInfo(tbl, st.Source, previewRows), Cached: cached})
}

func (s *Server) loadOptions(q url.Values) (analysis.LoadOptions, error) {
	opt := analysis.LoadOptions{Sheet: q.Get("sheet"), MaxRows: s.cfg.MaxRows}
	if v := q.Get("sheet_index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opt, &badRequest{msg: "sheet_index must be a positive integer"}
		}
		opt.SheetIndex = n
	}
	for _, f := range []struct {
		name string
		dst  *rune
	}{
		{"delimiter", &opt.Delimiter},
		{"decimal", &opt.DecimalSeparator},
		{"thousands", &opt.ThousandsSeparator},
	} {
		v := q.Get(f.name)
		switch {
		case v == "":
			continue
		case v == "tab" || v == `\t`:
			*f.dst = '\t'
		case utf8.RuneCountInString(v) == 1:
			*f.dst, _ = utf8.DecodeRuneInString(v)
		default:
			return opt, &badRequest{msg: fmt.Sprintf("%s must be a single character", f.name)}
		}
	}
	return opt, nil
}

// handleGetTable returns the active table
// @Summary Get table
// @Description Schema and leading rows of the session's active table.
// @Tags data
// @Produce json
// @Param limit query int false "Rows to return" default(100)
// @Success 200 {object} TableInfo
// @Failure 409 {object} errorBody "No dataset loaded"
// @Router /table [get]
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	st, err := s.activeTable(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, r, &badRequest{msg: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, tableInfo(st.Table, st.Source, limit))
}

// TransformRequest filters, sorts or groups the active table. With Apply the
// result replaces the active table; otherwise it is only returned. For group,
// Column is the grouping column and Aggs maps columns to sum, mean, count,
// min or max.
type TransformRequest struct {
	Column    string            `json:"column"`
	Value     string            `json:"value,omitempty"`
	Ascending *bool             `json:"ascending,omitempty"`
	Aggs      map[string]string `json:"aggs,omitempty"`
	Apply     bool              `json:"apply,omitempty"`
	Limit     int               `json:"limit,omitempty"`
}

// handleFilter keeps rows whose column equals value
// @Summary Filter table
// @Tags data
// @Accept json
// @Produce json
// @Param request body TransformRequest true "Column and value"
// @Success 200 {object} TableInfo
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody "No dataset loaded"
// @Router /table/filter [post]
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	s.transform(w, r, func(t *analysis.Table, req TransformRequest) (*analysis.Table, string, error) {
		out, err := analysis.Filter(t, req.Column, req.Value)
		return out, fmt.Sprintf("filter %s=%s", req.Column, req.Value), err
	})
}

// handleSort orders the table by a column
// @Summary Sort table
// @Description Stable sort; missing cells go last. Ascending unless ascending is false.
// @Tags data
// @Accept json
// @Produce json
// @Param request body TransformRequest true "Column and direction"
// @Success 200 {object} TableInfo
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody "No dataset loaded"
// @Router /table/sort [post]
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	s.transform(w, r, func(t *analysis.Table, req TransformRequest) (*analysis.Table, string, error) {
		asc := req.Ascending == nil || *req.Ascending
		dir := "asc"
		if !asc {
			dir = "desc"
		}
		out, err := analysis.Sort(t, req.Column, asc)
		return out, fmt.Sprintf("sort %s %s", req.Column, dir), err
	})
}

// handleGroup aggregates the table per distinct value of a column
// @Summary Group table
// @Description One row per distinct non-missing value of column, ascending, with aggs applied per column.
// @Tags data
// @Accept json
// @Produce json
// @Param request body TransformRequest true "Grouping column and aggregations"
// @Success 200 {object} TableInfo
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody "No dataset loaded"
// @Router /table/group [post]
func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	s.transform(w, r, func(t *analysis.Table, req TransformRequest) (*analysis.Table, string, error) {
		parts := make([]string, 0, len(req.Aggs))
		for col, agg := range req.Aggs {
			parts = append(parts, col+" "+agg)
		}
		sort.Strings(parts)
		out, err := analysis.Group(t, req.Column, req.Aggs)
		return out, fmt.Sprintf("group %s (%s)", req.Column, strings.Join(parts, ", ")), err
	})
}

func (s *Server) transform(w http.ResponseWriter, r *http.Request, fn func(*analysis.Table, TransformRequest) (*analysis.Table, string, error)) {
	st, err := s.activeTable(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req TransformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Limit < 0 {
		s.fail(w, r, &badRequest{msg: "limit must be a non-negative integer"})
		return
	}
	out, step, err := fn(st.Table, req)
	if err != nil {
		s.fail(w, r, &badRequest{msg: err.Error()})
		return
	}
	source := st.Source + " | " + step
	if req.Apply {
		if st, err = s.sessions.InstallTable(st.ID, out, source); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	limit := req.Limit
	if limit == 0 {
		limit = 100
	}
	writeJSON(w, http.StatusOK, tableInfo(out, source, limit))
}

// handleSummary summarizes the active table
// @Summary Summary statistics
// @Description Per-column statistics of the active table as JSON, YAML or a Markdown report.
// @Tags analysis
// @Produce json
// @Produce text/markdown
// @Param format query string false "json, yaml or markdown" default(json)
// @Param correlations query bool false "Include Pearson correlations"
// @Param outliers query bool false "Include robust-z outlier counts"
// @Success 200 {object} analysis.Report
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody "No dataset loaded"
// @Router /summary [get]
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	st, err := s.activeTable(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	opt := analysis.DefaultSummaryOptions()
	for name, dst := range map[string]*bool{"correlations": &opt.Correlations, "outliers": &opt.Outliers} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				s.fail(w, r, &badRequest{msg: name + " must be a boolean"})
				return
			}
			*dst = b
		}
	}
	format := q.Get("format")
	switch format {
	case "", "json", "yaml", "markdown":
	default:
		s.fail(w, r, &badRequest{msg: fmt.Sprintf("unknown format %q", format)})
		return
	}

	key := session.Key("summary", st.Table.Fingerprint(), strconv.FormatBool(opt.Correlations), strconv.FormatBool(opt.Outliers))
	rep, _, _ := s.summaries.Get(key, func() (*analysis.Report, error) {
		return analysis.Summarize(st.Table, opt), nil
	})

	switch format {
	case "yaml":
		b, err := yaml.Marshal(rep)
		if err != nil {
			s.fail(w, r, fmt.Errorf("marshal yaml: %w", err))
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(b)
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, rep.Markdown())
	default:
		writeJSON(w, http.StatusOK, rep)
	}
}
