package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/KaramelBytes/dataloom/internal/analysis"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func apiServer(t *testing.T) *ipv4Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret-key" || r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad credentials"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("team") == "red" {
			_, _ = w.Write([]byte(`[{"id":1,"name":"ann","meta":{"age":31,"active":true}}]`))
			return
		}
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"ann","meta":{"age":31,"active":true}},
			{"name":"bob","id":2,"meta":{"active":false,"age":null}}
		]`))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total": 3}`))
	})
	mux.HandleFunc("/ragged", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"a":1},{"b":2}]`))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	return newIPv4Server(t, mux)
}

func TestFetchTabularPayload(t *testing.T) {
	srv := apiServer(t)
	defer srv.Close()
	c := New(srv.URL+"/", "secret-key", time.Second)

	res, err := c.Fetch(context.Background(), "/users", nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Status != http.StatusOK || res.Table == nil || res.TableError != "" {
		t.Fatalf("result = %+v", res)
	}
	got := strings.Join(res.Table.ColumnNames(), ",")
	if got != "id,name,meta.age,meta.active" {
		t.Fatalf("columns = %s", got)
	}
	if res.Table.Cell("name", 1) != "bob" || res.Table.Cell("meta.age", 1) != "" {
		t.Fatalf("row 1 = %v", res.Table.Row(1))
	}
	if k, _ := res.Table.KindOf("meta.active"); k != analysis.KindBoolean {
		t.Fatalf("meta.active kind = %s", k)
	}
	if k, _ := res.Table.KindOf("id"); k != analysis.KindNumeric {
		t.Fatalf("id kind = %s", k)
	}
	if res.Table.Name() != "api:users" {
		t.Fatalf("table name = %q", res.Table.Name())
	}

	filtered, err := c.Fetch(context.Background(), "users", map[string]string{"team": "red"})
	if err != nil {
		t.Fatalf("Fetch with params: %v", err)
	}
	if !strings.HasSuffix(filtered.URL, "/users?team=red") || filtered.Table.NumRows() != 1 {
		t.Fatalf("filtered = %+v", filtered)
	}
}

func TestFetchNonTabularPayload(t *testing.T) {
	srv := apiServer(t)
	defer srv.Close()
	c := New(srv.URL, "secret-key", time.Second)
	for _, ep := range []string{"stats", "ragged"} {
		res, err := c.Fetch(context.Background(), ep, nil)
		if err != nil {
			t.Fatalf("%s: %v", ep, err)
		}
		if res.Table != nil || res.TableError == "" || len(res.Raw) == 0 {
			t.Fatalf("%s: result = %+v", ep, res)
		}
	}
}

func TestFetchErrors(t *testing.T) {
	srv := apiServer(t)
	defer srv.Close()
	c := New(srv.URL, "secret-key", time.Second)

	_, err := c.Fetch(context.Background(), "missing", nil)
	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %T %v", err, err)
	}

	_, err = New(srv.URL, "wrong", time.Second).Fetch(context.Background(), "users", nil)
	if !errors.As(err, &he) || he.Status != http.StatusUnauthorized || he.Message != "bad credentials" {
		t.Fatalf("expected 401 HTTPError, got %T %v", err, err)
	}
	if strings.Contains(err.Error(), "wrong") {
		t.Fatalf("error leaks api key: %v", err)
	}

	_, err = c.Fetch(context.Background(), "html", nil)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T %v", err, err)
	}

	_, err = New(srv.URL, "secret-key", 100*time.Millisecond).Fetch(context.Background(), "slow", nil)
	var ne *NetworkError
	if !errors.As(err, &ne) || !ne.Timeout {
		t.Fatalf("expected timeout NetworkError, got %T %v", err, err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestFetchKeepsKeyOnBaseOrigin(t *testing.T) {
	srv := apiServer(t)
	defer srv.Close()
	var gotAuth []string
	other := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"a":1}]`)
	}))
	defer other.Close()

	c := New(srv.URL, "secret-key", time.Second)
	_, err := c.Fetch(context.Background(), other.URL+"/x", nil)
	if !errors.Is(err, ErrForeignHost) {
		t.Fatalf("expected ErrForeignHost, got %T %v", err, err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
	if len(gotAuth) != 0 {
		t.Fatalf("foreign host was contacted with Authorization %q", gotAuth)
	}

	res, err := c.Fetch(context.Background(), srv.URL+"/users", nil)
	if err != nil || res.Table == nil {
		t.Fatalf("absolute endpoint on base origin: res=%+v err=%v", res, err)
	}

	if _, err := New("", "secret-key", time.Second).Fetch(context.Background(), other.URL+"/x", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without a base URL, got %v", err)
	}
	if len(gotAuth) != 0 {
		t.Fatalf("foreign host was contacted with Authorization %q", gotAuth)
	}
}

func TestFetchUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = New("http://"+addr, "", time.Second).Fetch(context.Background(), "users", nil)
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.Timeout {
		t.Fatalf("expected connection NetworkError, got %T %v", err, err)
	}
}

func TestFetchRequiresBaseURL(t *testing.T) {
	_, err := New("", "", time.Second).Fetch(context.Background(), "users", nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := apiServer(t)
	defer srv.Close()
	if !New(srv.URL, "", time.Second).Health(context.Background()) {
		t.Fatalf("expected healthy")
	}
	if New("http://127.0.0.1:1", "", 200*time.Millisecond).Health(context.Background()) {
		t.Fatalf("expected unhealthy")
	}
}
