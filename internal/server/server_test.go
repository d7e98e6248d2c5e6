package server

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/data-alchemist/internal/audit"
	"github.com/ziadkadry99/data-alchemist/internal/db"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *workspace.Workspace) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	ws := workspace.New()
	return New(cfg, ws, database, nil), ws
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, Config{AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestFeatureRoutesMounted(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	for _, path := range []string{
		"/api/rules/",
		"/api/conflicts",
		"/api/weights/",
		"/api/weights/presets",
		"/api/dataset",
		"/api/confidence/stats",
		"/api/assistant/status",
		"/api/export/rules.json",
		"/api/audit/",
	} {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d: %s", path, w.Code, w.Body)
		}
	}
}

func TestRuleChangesAreAudited(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	body := `{"name":"pair","type":"coRun","taskIds":["T1","T2"]}`
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rules/", bytes.NewBufferString(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body)
	}

	entries, err := srv.Audit().Query(t.Context(), audit.QueryFilter{Action: audit.ActionRuleCreated})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(entries))
	}
}

func TestChangeFeed(t *testing.T) {
	srv, ws := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	defer srv.Hub().Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := ws.AddRule("a", "", rules.CoRun{TaskIDs: []string{"T1", "T2"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.AddRule("b", "", rules.CoRun{TaskIDs: []string{"T2", "T1"}}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second ChangeMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}

	if first.Type != workspace.EventRules || first.Conflicts.Total != 0 || first.At.IsZero() {
		t.Errorf("first message = %+v", first)
	}
	if second.Conflicts.Errors != 1 {
		t.Errorf("second message conflicts = %+v", second.Conflicts)
	}
}

func TestHubDropsOnClose(t *testing.T) {
	h := NewHub()
	h.Broadcast(map[string]string{"type": "noop"})
	h.Close()
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d", h.Subscribers())
	}
}

func TestShutdownWhileStarting(t *testing.T) {
	srv, _ := newTestServer(t, Config{Port: 0})

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
