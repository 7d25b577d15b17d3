package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/KaramelBytes/dataloom/internal/analysis"
	"github.com/KaramelBytes/dataloom/internal/session"
)

// ColumnInfo describes one column of the active table.
type ColumnInfo struct {
	Name string        `json:"name"`
	Kind analysis.Kind `json:"kind"`
}

// TableInfo is the JSON view of a table: schema plus leading rows.
type TableInfo struct {
	Name        string       `json:"name"`
	Source      string       `json:"source,omitempty"`
	Rows        int          `json:"rows"`
	Columns     []ColumnInfo `json:"columns"`
	Fingerprint string       `json:"fingerprint"`
	Data        [][]string   `json:"data"`
}

func tableInfo(t *analysis.Table, source string, limit int) *TableInfo {
	info := &TableInfo{
		Name:        t.Name(),
		Source:      source,
		Rows:        t.NumRows(),
		Fingerprint: t.Fingerprint(),
		Data:        t.Head(limit),
	}
	for i := 0; i < t.NumCols(); i++ {
		c := t.ColumnAt(i)
		info.Columns = append(info.Columns, ColumnInfo{Name: c.Name, Kind: c.Kind})
	}
	return info
}

const previewRows = 10

// SessionResponse is the state of the caller's dashboard session.
type SessionResponse struct {
	ID        string         `json:"id"`
	Page      session.Page   `json:"page"`
	Pages     []session.Page `json:"pages"`
	HasTable  bool           `json:"has_table"`
	Table     *TableInfo     `json:"table,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func sessionResponse(st session.State) SessionResponse {
	resp := SessionResponse{ID: st.ID, Page: st.Page, Pages: session.Pages, HasTable: st.Table != nil, UpdatedAt: st.UpdatedAt}
	if st.Table != nil {
		resp.Table = tableInfo(st.Table, st.Source, previewRows)
	}
	return resp
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequest{msg: "invalid JSON payload: " + err.Error()}
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetSession returns the caller's session, creating one if needed
// @Summary Get session
// @Description Returns the current page and the active dataset of the caller's session. A session cookie is issued when missing.
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /session [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse(s.session(w, r)))
}

type pageRequest struct {
	Page string `json:"page"`
}

// handleSetPage switches the dashboard page
// @Summary Set page
// @Description Switches the session to one of Upload, Analysis, Visualization or API.
// @Tags session
// @Accept json
// @Produce json
// @Param page body pageRequest true "Target page"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errorBody "Unknown page"
// @Router /session/page [put]
func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	st := s.session(w, r)
	var req pageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := session.ParsePage(req.Page)
	if err != nil {
		s.fail(w, r, &badRequest{msg: err.Error()})
		return
	}
	st, err = s.sessions.SetPage(st.ID, p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(st))
}

// handleHistory lists recent loads and fetches
// @Summary Activity history
// @Description Recent uploads and API fetches, newest first. Empty when the activity log is disabled.
// @Tags history
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {array} store.Event
// @Failure 500 {object} errorBody
// @Router /history [get]
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.fail(w, r, &badRequest{msg: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	evs, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}
