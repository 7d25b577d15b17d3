package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/KaramelBytes/dataloom/internal/analysis"
	"github.com/KaramelBytes/dataloom/internal/chart"
	"github.com/KaramelBytes/dataloom/internal/config"
	_ "github.com/KaramelBytes/dataloom/internal/docs"
	"github.com/KaramelBytes/dataloom/internal/fetch"
	"github.com/KaramelBytes/dataloom/internal/session"
	"github.com/KaramelBytes/dataloom/internal/store"
)

const sessionCookie = "dataloom_session"

// Server wires the dashboard's JSON API to the analysis core. Caching lives
// here; the core packages know nothing about it.
type Server struct {
	cfg      *config.Global
	log      *slog.Logger
	sessions *session.Manager
	fetcher  *fetch.Client
	store    *store.Store
	charts   chart.Builder

	tables    *session.Memo[*analysis.Table]
	summaries *session.Memo[*analysis.Report]
	fetches   *session.Memo[*fetch.Result]

	router *Router
}

// New builds a Server. st may be nil to disable the activity log.
func New(cfg *config.Global, log *slog.Logger, st *store.Store) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		sessions:  session.NewManager(cfg.SessionTTL()),
		fetcher:   fetch.New(cfg.APIBaseURL, cfg.APIKey, cfg.FetchTimeout()),
		store:     st,
		charts:    chart.Builder{GroupCap: cfg.GroupDisplayCap, Bins: cfg.HistogramBins},
		tables:    session.NewMemo[*analysis.Table](cfg.CacheTTL(), cfg.CacheMaxEntries),
		summaries: session.NewMemo[*analysis.Report](cfg.CacheTTL(), cfg.CacheMaxEntries),
		fetches:   session.NewMemo[*fetch.Result](cfg.CacheTTL(), cfg.CacheMaxEntries),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *Router {
	r := NewRouter(s.log)
	r.GET("/healthz", s.handleHealthz)
	r.GET("/api/session", s.handleGetSession)
	r.PUT("/api/session/page", s.handleSetPage)
	r.POST("/api/upload", s.handleUpload)
	r.GET("/api/table", s.handleGetTable)
	r.POST("/api/table/filter", s.handleFilter)
	r.POST("/api/table/sort", s.handleSort)
	r.POST("/api/table/group", s.handleGroup)
	r.GET("/api/summary", s.handleSummary)
	r.POST("/api/chart", s.handleBuildChart)
	r.GET("/api/chart/render", s.handleRenderChart)
	r.POST("/api/fetch", s.handleFetch)
	r.GET("/api/fetch/health", s.handleFetchHealth)
	r.GET("/api/history", s.handleHistory)
	r.Mount("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.sweep(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("server started", "addr", ln.Addr().String(), "api_configured", s.fetcher.Configured())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) sweep(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ids := s.sessions.Sweep(); len(ids) > 0 {
				s.log.Debug("expired sessions", "count", len(ids))
			}
		}
	}
}

// session resolves the caller's session from the cookie, starting a new one
// when the cookie is missing or stale.
func (s *Server) session(w http.ResponseWriter, r *http.Request) session.State {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if st, err := s.sessions.Get(c.Value); err == nil {
			return st
		}
	}
	st := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    st.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return st
}

func (s *Server) activeTable(w http.ResponseWriter, r *http.Request) (session.State, error) {
	st := s.session(w, r)
	if st.Table == nil {
		return st, errNoTable
	}
	return st, nil
}

func (s *Server) recordLoad(ctx context.Context, sid, name string, t *analysis.Table, err error) {
	rows, cols := 0, 0
	if t != nil {
		rows, cols = t.NumRows(), t.NumCols()
	}
	if rerr := s.store.RecordLoad(ctx, sid, name, rows, cols, outcome(err)); rerr != nil {
		s.log.Warn("activity log write failed", "err", rerr)
	}
}

func (s *Server) recordFetch(ctx context.Context, sid, target string, res *fetch.Result, err error) {
	status, rows, cols := 0, 0, 0
	if res != nil {
		status = res.Status
		if res.Table != nil {
			rows, cols = res.Table.NumRows(), res.Table.NumCols()
		}
	}
	var he *fetch.HTTPError
	if errors.As(err, &he) {
		status = he.Status
	}
	if rerr := s.store.RecordFetch(ctx, sid, target, status, rows, cols, outcome(err)); rerr != nil {
		s.log.Warn("activity log write failed", "err", rerr)
	}
}
