package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KaramelBytes/dataloom/internal/analysis"
	"github.com/KaramelBytes/dataloom/internal/chart"
	"github.com/KaramelBytes/dataloom/internal/fetch"
	"github.com/KaramelBytes/dataloom/internal/session"
)

var errNoTable = errors.New("no dataset loaded; upload a file or fetch API data first")

// badRequest marks client input errors that have no richer type.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

type errorBody struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	Column         string `json:"column,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps an error to its HTTP status and response body.
func classify(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}
	var (
		le   *analysis.LoadError
		ve   *chart.ValidationError
		ne   *fetch.NetworkError
		he   *fetch.HTTPError
		de   *fetch.DecodeError
		br   *badRequest
		mbe  *http.MaxBytesError
		code int
	)
	switch {
	case errors.As(err, &le):
		body.Code = string(le.Code)
		code = http.StatusBadRequest
		if le.Code == analysis.UnsupportedFormat {
			code = http.StatusUnsupportedMediaType
		}
	case errors.As(err, &ve):
		body.Code, body.Column = string(ve.Code), ve.Column
		code = http.StatusUnprocessableEntity
	case errors.As(err, &ne):
		body.Code = "NetworkError"
		if ne.Timeout {
			body.Code = "Timeout"
		}
		code = http.StatusBadGateway
	case errors.As(err, &he):
		body.Code, body.UpstreamStatus = "HTTPError", he.Status
		code = http.StatusBadGateway
	case errors.As(err, &de):
		body.Code = "DecodeError"
		code = http.StatusBadGateway
	case errors.Is(err, fetch.ErrForeignHost):
		body.Code = "foreign_host"
		code = http.StatusBadRequest
	case errors.Is(err, fetch.ErrNotConfigured):
		body.Code = "not_configured"
		body.Error = "API client not configured; set API_BASE_URL (and API_KEY if the API needs one)"
		code = http.StatusServiceUnavailable
	case errors.Is(err, errNoTable):
		body.Code = "no_table"
		code = http.StatusConflict
	case errors.Is(err, session.ErrNotFound):
		body.Code = "session_not_found"
		code = http.StatusNotFound
	case errors.As(err, &mbe):
		body.Code = "too_large"
		code = http.StatusRequestEntityTooLarge
	case errors.As(err, &br):
		body.Code = "bad_request"
		code = http.StatusBadRequest
	default:
		body.Code = "internal"
		code = http.StatusInternalServerError
	}
	return code, body
}

// outcome is the short error class recorded in the activity log.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	_, body := classify(err)
	return body.Code
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, body := classify(err)
	if code >= 500 && code != http.StatusBadGateway && code != http.StatusServiceUnavailable {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	} else {
		s.log.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "code", body.Code, "err", err)
	}
	writeJSON(w, code, body)
}
