package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/KaramelBytes/dataloom/internal/fetch"
	"github.com/KaramelBytes/dataloom/internal/session"
)

// FetchRequest names an endpoint under API_BASE_URL. With Load, a tabular
// response replaces the session's active table.
type FetchRequest struct {
	Endpoint string            `json:"endpoint"`
	Params   map[string]string `json:"params,omitempty"`
	Load     bool              `json:"load,omitempty"`
}

// FetchResponse is the decoded API payload.
type FetchResponse struct {
	URL        string          `json:"url"`
	Status     int             `json:"status"`
	Raw        json.RawMessage `json:"raw"`
	Tabular    bool            `json:"tabular"`
	TableError string          `json:"table_error,omitempty"`
	Table      *TableInfo      `json:"table,omitempty"`
	Loaded     bool            `json:"loaded"`
	Cached     bool            `json:"cached"`
}

// handleFetch performs one GET against the configured API
// @Summary Fetch API data
// @Description Single GET with bearer auth and no retries. Responses are cached for the configured TTL.
// @Tags api
// @Accept json
// @Produce json
// @Param request body FetchRequest true "Endpoint and query parameters"
// @Success 200 {object} FetchResponse
// @Failure 400 {object} errorBody
// @Failure 502 {object} errorBody "NetworkError, Timeout, HTTPError or DecodeError"
// @Failure 503 {object} errorBody "API not configured"
// @Router /fetch [post]
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	st := s.session(w, r)
	var req FetchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Endpoint) == "" {
		s.fail(w, r, &badRequest{msg: "endpoint is required"})
		return
	}
	target, err := s.fetcher.URL(req.Endpoint, req.Params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, cached, err := s.fetches.Get(session.Key("fetch", target), func() (*fetch.Result, error) {
		return s.fetcher.Fetch(r.Context(), req.Endpoint, req.Params)
	})
	s.recordFetch(r.Context(), st.ID, target, res, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := FetchResponse{
		URL:        res.URL,
		Status:     res.Status,
		Raw:        res.Raw,
		Tabular:    res.Table != nil,
		TableError: res.TableError,
		Cached:     cached,
	}
	if res.Table != nil {
		resp.Table = tableInfo(res.Table, res.Table.Name(), previewRows)
		if req.Load {
			if _, err := s.sessions.InstallTable(st.ID, res.Table, res.Table.Name()); err != nil {
				s.fail(w, r, err)
				return
			}
			resp.Loaded = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthResponse reports the external API's health check.
type HealthResponse struct {
	Configured bool `json:"configured"`
	Healthy    bool `json:"healthy"`
}

// handleFetchHealth checks the external API
// @Summary API health
// @Description GET health on the configured API; healthy when it answers status "healthy".
// @Tags api
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /fetch/health [get]
func (s *Server) handleFetchHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Configured: s.fetcher.Configured()}
	if resp.Configured {
		resp.Healthy = s.fetcher.Health(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}
