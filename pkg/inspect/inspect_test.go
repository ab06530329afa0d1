package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/nav/pkg/location"
	"github.com/vango-dev/nav/pkg/router"
	"github.com/vango-dev/nav/pkg/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRoutes() []*router.Route {
	return []*router.Route{
		{Path: "", RedirectTo: "home", PathMatch: router.PathMatchFull},
		{Path: "home", Component: "Home"},
		{Path: "team/:id", Component: "Team", Data: map[string]any{"title": "Team"}},
	}
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *router.Router) {
	t.Helper()
	r, err := router.New(testRoutes(),
		router.WithLocation(location.NewMemory("/")),
		router.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}
	t.Cleanup(r.Dispose)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)

	s := New(r, append([]Option{WithLogger(quietLogger())}, opts...)...)
	t.Cleanup(s.Close)
	return s, r
}

func navigate(t *testing.T, r *router.Router, u string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ok, err := r.NavigateByURL(u).Wait(ctx); !ok || err != nil {
		t.Fatalf("NavigateByURL(%q) = %v, %v", u, ok, err)
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestStateEndpoint(t *testing.T) {
	s, r := newTestServer(t)
	navigate(t, r, "/team/7")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	st := decode[StateJSON](t, rec)
	if st.URL != "/team/7" || !st.Navigated {
		t.Errorf("state = %+v, want url /team/7 navigated", st)
	}
	if len(st.Root.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(st.Root.Children))
	}
	team := st.Root.Children[0]
	if team.Component != "Team" || team.Params["id"] != "7" || team.Data["title"] != "Team" {
		t.Errorf("team route = %+v", team)
	}
	if team.Path != "team/:id" || team.Outlet != "primary" {
		t.Errorf("team route path/outlet = %q/%q", team.Path, team.Outlet)
	}
}

func TestParseEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name       string
		url        string
		status     int
		serialized string
	}{
		{"simple", "/a/b", http.StatusOK, "/a/b"},
		{"outlets and query", "/a(side:b)?z=1&a=2#top", http.StatusOK, "/a(side:b)?a=2&z=1#top"},
		{"malformed", "/a(b:c", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/parse?url="+url.QueryEscape(tt.url), nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				if e := decode[ErrorJSON](t, rec); e.Error == "" {
					t.Error("error body is empty")
				}
				return
			}
			tree := decode[TreeJSON](t, rec)
			if tree.Serialized != tt.serialized {
				t.Errorf("serialized = %q, want %q", tree.Serialized, tt.serialized)
			}
		})
	}
}

func TestParseEndpointGroups(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/parse?url="+url.QueryEscape("/a;p=1(side:b)"), nil))

	tree := decode[TreeJSON](t, rec)
	primary := tree.Root.Children["primary"]
	if primary == nil || len(primary.Segments) != 1 || primary.Segments[0] != "a;p=1" {
		t.Fatalf("primary = %+v", primary)
	}
	if side := tree.Root.Children["side"]; side == nil || side.Segments[0] != "b" {
		t.Errorf("side = %+v", side)
	}
}

func TestActiveEndpoint(t *testing.T) {
	s, r := newTestServer(t)
	navigate(t, r, "/team/7")

	tests := []struct {
		query string
		want  bool
	}{
		{"url=/team/7&exact=true", true},
		{"url=/team", false},
		{"url=/team&exact=false", true},
		{"url=/home", false},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/active?"+tt.query, nil))
		got := decode[map[string]bool](t, rec)
		if got["active"] != tt.want {
			t.Errorf("/active?%s = %v, want %v", tt.query, got["active"], tt.want)
		}
	}
}

func TestConfigEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"path: team/:id", "redirectTo: home", "component: Team"} {
		if !strings.Contains(body, want) {
			t.Errorf("config missing %q:\n%s", want, body)
		}
	}
}

func TestNavigateEndpoint(t *testing.T) {
	s, r := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		status    int
		navigated bool
		url       string
		coded     bool
	}{
		{"redirect", `{"url": "/"}`, http.StatusOK, true, "/home", false},
		{"params", `{"url": "/team/3", "replace": true}`, http.StatusOK, true, "/team/3", false},
		{"no match", `{"url": "/nowhere"}`, http.StatusOK, false, "/team/3", true},
		{"bad body", `{`, http.StatusBadRequest, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/navigate", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			resp := decode[NavigateResponse](t, rec)
			if resp.Navigated != tt.navigated || resp.URL != tt.url {
				t.Errorf("response = %+v, want navigated=%v url=%q", resp, tt.navigated, tt.url)
			}
			if !tt.coded && resp.Error != nil {
				t.Errorf("unexpected error %+v", resp.Error)
			}
			if tt.coded && (resp.Error == nil || resp.Error.Code == "") {
				t.Errorf("error = %+v, want a coded error", resp.Error)
			}
		})
	}
	if got := r.URL(); got != "/team/3" {
		t.Errorf("router URL = %q, want /team/3", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
	s, r := newTestServer(t, WithGatherer(reg))
	defer m.Attach(r)()
	navigate(t, r, "/home")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `nav_router_navigations_total{outcome="success"} 1`) {
		t.Errorf("metrics output missing success counter:\n%s", rec.Body.String())
	}
}

func TestMetricsEndpointNotMountedWithoutGatherer(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestEventStream(t *testing.T) {
	s, r := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for s.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	navigate(t, r, "/team/9")

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var types []string
	for {
		var ev EventJSON
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("ReadJSON() error = %v (got %v)", err, types)
		}
		types = append(types, ev.Type)
		if ev.Type == "NavigationEnd" {
			if ev.URL != "/team/9" || ev.ID == 0 {
				t.Errorf("NavigationEnd = %+v", ev)
			}
			break
		}
	}
	if types[0] != "NavigationStart" {
		t.Errorf("first event = %q, want NavigationStart", types[0])
	}

	s.Close()
	if s.Clients() != 0 {
		t.Errorf("Clients() after Close = %d, want 0", s.Clients())
	}
}

func TestEventStreamRejectsCrossOrigin(t *testing.T) {
	s, _ := newTestServer(t, WithCheckOrigin(func(r *http.Request) bool {
		return r.Header.Get("Origin") == "http://allowed.test"
	}))
	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	header := http.Header{"Origin": []string{"http://evil.test"}}
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		t.Fatal("Dial() succeeded for a rejected origin")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Dial() response = %v, want 403", resp)
	}
}
