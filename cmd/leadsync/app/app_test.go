package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync"
	"github.com/agentstation/leadsync/internal/clickup"
	"github.com/agentstation/leadsync/internal/clickup/clickuptest"
	"github.com/agentstation/leadsync/pkg/errors"
)

func testConfig(baseURL string) *Config {
	return &Config{
		APIToken:       clickuptest.Token,
		ListID:         "L1",
		BaseURL:        baseURL,
		Concurrency:    2,
		LookupMaxPages: 3,
		StatusColumn:   "status",
		LogFormat:      "json",
		LogOutput:      "discard",
	}
}

func newTestApp(t *testing.T, config *Config) *App {
	t.Helper()
	logger := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", WithConfig(config), WithLogger(&logger))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_WithConfigRejectsNil verifies option validation.
func TestApp_WithConfigRejectsNil(t *testing.T) {
	if _, err := New("1.0.0", "", "", "", WithConfig(nil)); err == nil {
		t.Error("New() accepted a nil config")
	}
}

// TestApp_Leadsync_RequiresToken verifies a missing token surfaces as an API key error.
func TestApp_Leadsync_RequiresToken(t *testing.T) {
	config := testConfig("http://127.0.0.1:1")
	config.APIToken = ""
	app := newTestApp(t, config)

	_, err := app.Leadsync()
	if !errors.IsAPIKeyError(err) {
		t.Fatalf("Leadsync() err = %v, want API key error", err)
	}
}

// TestApp_Leadsync_Singleton verifies that Leadsync() returns the same instance.
func TestApp_Leadsync_Singleton(t *testing.T) {
	app := newTestApp(t, testConfig("http://127.0.0.1:1"))

	c1, err := app.Leadsync()
	if err != nil {
		t.Fatalf("Leadsync() failed: %v", err)
	}
	c2, err := app.Leadsync()
	if err != nil {
		t.Fatalf("Leadsync() failed on second call: %v", err)
	}
	if c1 != c2 {
		t.Error("Leadsync() returned different instances, expected singleton")
	}
	if c1.ListID() != "L1" {
		t.Errorf("ListID() = %q, want L1", c1.ListID())
	}
}

// TestApp_Leadsync_ThreadSafe verifies concurrent Leadsync() calls are safe.
func TestApp_Leadsync_ThreadSafe(t *testing.T) {
	app := newTestApp(t, testConfig("http://127.0.0.1:1"))

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]leadsync.Client, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = app.Leadsync()
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: Leadsync() failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different instance", i)
		}
	}
}

// TestApp_LeadsyncWithOptions verifies custom clients are not cached.
func TestApp_LeadsyncWithOptions(t *testing.T) {
	app := newTestApp(t, testConfig("http://127.0.0.1:1"))

	c1, err := app.LeadsyncWithOptions(leadsync.WithListID("other"))
	if err != nil {
		t.Fatalf("LeadsyncWithOptions() failed: %v", err)
	}
	if c1.ListID() != "other" {
		t.Errorf("ListID() = %q, want other", c1.ListID())
	}

	def, err := app.Leadsync()
	if err != nil {
		t.Fatal(err)
	}
	if def == c1 || def.ListID() != "L1" {
		t.Error("LeadsyncWithOptions() leaked into the default client")
	}

	if _, err := app.LeadsyncWithOptions(leadsync.WithConcurrency(0)); !errors.IsValidationError(err) {
		t.Errorf("invalid option err = %v, want validation error", err)
	}
}

// TestApp_WithClient verifies an injected client is returned as is.
func TestApp_WithClient(t *testing.T) {
	injected, err := leadsync.New(leadsync.WithToken("tok"), leadsync.WithListID("injected"))
	if err != nil {
		t.Fatal(err)
	}
	logger := zerolog.Nop()
	app, err := New("1.0.0", "", "", "", WithConfig(testConfig("")), WithLogger(&logger), WithClient(injected))
	if err != nil {
		t.Fatal(err)
	}

	got, err := app.Leadsync()
	if err != nil || got != injected {
		t.Fatalf("Leadsync() = %v, %v; want injected client", got, err)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	got, err = app.Leadsync()
	if err != nil || got == injected {
		t.Error("Shutdown() did not release the client")
	}
}

// TestApp_Execute runs commands end to end against a fake ClickUp.
func TestApp_Execute(t *testing.T) {
	fake := clickuptest.New(t)
	fake.AddFields("L1", clickup.Field{ID: "f-email", Name: "Email", Type: "email"})
	app := newTestApp(t, testConfig(fake.URL))

	t.Run("version", func(t *testing.T) {
		var out bytes.Buffer
		root := app.createRootCommand()
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs([]string{"version", "-v", "--log-level", "error"})
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("version failed: %v", err)
		}
		if !strings.Contains(out.String(), "leadsync 1.0.0") || !strings.Contains(out.String(), "abc123") {
			t.Errorf("unexpected version output: %q", out.String())
		}
	})

	t.Run("schema json", func(t *testing.T) {
		var out bytes.Buffer
		root := app.createRootCommand()
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"schema", "-o", "json", "--log-level", "error"})
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("schema failed: %v", err)
		}
		if !strings.Contains(out.String(), `"id": "f-email"`) {
			t.Errorf("unexpected schema output: %q", out.String())
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		root := app.createRootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"schema", "-o", "xml"})
		if err := root.ExecuteContext(context.Background()); err == nil {
			t.Error("schema accepted an invalid format")
		}
	})
}

// TestApp_ConfigFlag verifies --config reloads configuration before the command runs.
func TestApp_ConfigFlag(t *testing.T) {
	fake := clickuptest.New(t)
	fake.AddFields("from-file", clickup.Field{ID: "f-file", Name: "Email", Type: "email"})

	path := filepath.Join(t.TempDir(), "leadsync.yaml")
	content := "clickup_api_token: " + clickuptest.Token + "\nclickup_list_id: from-file\nclickup_base_url: " + fake.URL + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	app := newTestApp(t, testConfig("http://127.0.0.1:1"))
	var out bytes.Buffer
	root := app.createRootCommand()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"schema", "--config", path, "-o", "json", "--log-level", "error"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	if !strings.Contains(out.String(), "f-file") {
		t.Errorf("config file not used: %q", out.String())
	}
}
