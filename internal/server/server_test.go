package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/leadsync"
	"github.com/agentstation/leadsync/cmd/application"
	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/internal/clickup/clickuptest"
	"github.com/agentstation/leadsync/internal/server/middleware"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/logging"
)

const listID = "L1"

// newTestApp returns an application whose clients talk to the fake.
func newTestApp(fake *clickuptest.Server) *application.Mock {
	return &application.Mock{
		LeadsyncFunc: func(opts ...leadsync.Option) (leadsync.Client, error) {
			base := []leadsync.Option{
				leadsync.WithToken(clickuptest.Token),
				leadsync.WithListID(listID),
				leadsync.WithBaseURL(fake.URL),
				leadsync.WithLogger(logging.NewNopLogger()),
			}
			return leadsync.New(append(base, opts...)...)
		},
	}
}

func newTestServer(t *testing.T, cfg Config) (*clickuptest.Server, *httptest.Server) {
	t.Helper()
	fake := clickuptest.New(t)
	fake.AddFields(listID, clickup.Field{ID: "f-email", Name: "Email", Type: "email"})

	srv, err := New(newTestApp(fake), cfg)
	if err != nil {
		t.Fatalf("server.New() failed: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return fake, ts
}

func do(t *testing.T, method, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// TestServerNewFailsWithoutClient tests that client errors surface.
func TestServerNewFailsWithoutClient(t *testing.T) {
	app := &application.Mock{
		LeadsyncFunc: func(opts ...leadsync.Option) (leadsync.Client, error) {
			return leadsync.New(opts...)
		},
	}
	if _, err := New(app, DefaultConfig()); !errors.IsAPIKeyError(err) {
		t.Fatalf("expected API key error, got %v", err)
	}
}

// TestServerRoutes tests the public routes and request ids.
func TestServerRoutes(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	for _, path := range []string{"/health", "/api/v1/health", "/api/v1/ready"} {
		resp := do(t, http.MethodGet, ts.URL+path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get(middleware.RequestIDHeader) == "" {
			t.Errorf("%s: expected a request id header", path)
		}
	}

	if resp := do(t, http.MethodGet, ts.URL+"/api/v1/models", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown route, got %d", resp.StatusCode)
	}
}

// TestServerReconcilesLeads tests a lead travelling to the remote list.
func TestServerReconcilesLeads(t *testing.T) {
	fake, ts := newTestServer(t, DefaultConfig())

	body := `{"leads":[{"name":"Ana","email":"ana@example.com"},{"name":"Ana Souza","email":"ANA@example.com"}]}`
	resp := do(t, http.MethodPost, ts.URL+"/api/v1/leads", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var env struct {
		Data []struct {
			Action string `json:"action"`
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data) != 2 {
		t.Fatalf("expected two outcomes, got %d", len(env.Data))
	}
	if env.Data[0].TaskID == "" || env.Data[0].TaskID != env.Data[1].TaskID {
		t.Errorf("expected both leads on one task, got %+v", env.Data)
	}
	if tasks := fake.Tasks(listID); len(tasks) != 1 {
		t.Errorf("expected one remote task, got %d", len(tasks))
	}

	// The batch resolved the schema once; the readiness probe hits the cache.
	do(t, http.MethodGet, ts.URL+"/api/v1/ready", "", nil)
	if n := fake.CountRequests(http.MethodGet, "/list/"+listID+"/field"); n != 1 {
		t.Errorf("expected one schema fetch, got %d", n)
	}
}

// TestServerAuth tests that only the leads endpoint is protected.
func TestServerAuth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthEnabled = true
	cfg.APIKey = "secret"
	_, ts := newTestServer(t, cfg)

	if resp := do(t, http.MethodGet, ts.URL+"/api/v1/ready", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("expected public readiness probe, got %d", resp.StatusCode)
	}
	body := `{"lead":{"name":"Ana"}}`
	if resp := do(t, http.MethodPost, ts.URL+"/api/v1/leads", body, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, ts.URL+"/api/v1/leads", body, map[string]string{"X-API-Key": "secret"}); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", resp.StatusCode)
	}
}

// TestServerRateLimit tests the per-IP limit across requests.
func TestServerRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 2
	_, ts := newTestServer(t, cfg)

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, http.MethodGet, ts.URL+"/health", "", nil).StatusCode
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}
}

// TestServerRunStopsOnCancel tests graceful shutdown without deadlock.
func TestServerRunStopsOnCancel(t *testing.T) {
	fake := clickuptest.New(t)
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv, err := New(newTestApp(fake), cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
