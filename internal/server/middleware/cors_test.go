package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestCORS tests origin handling.
func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		config         CORSConfig
		origin         string
		expectedOrigin string
	}{
		{"allow all", CORSConfig{AllowAll: true}, "https://a.example", "*"},
		{"allowed origin", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, "https://a.example", "https://a.example"},
		{"rejected origin", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, "https://b.example", ""},
		{"no origins configured", CORSConfig{}, "https://b.example", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.expectedOrigin {
				t.Errorf("expected origin %q, got %q", tt.expectedOrigin, got)
			}
			if w.Code != http.StatusOK {
				t.Errorf("expected request to pass through, got %d", w.Code)
			}
		})
	}
}

// TestCORS_PreflightShortCircuit tests that OPTIONS never reaches the handler.
func TestCORS_PreflightShortCircuit(t *testing.T) {
	called := false
	handler := CORS(DefaultCORSConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/leads", nil))

	if called {
		t.Error("preflight reached the handler")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Expose-Headers") != RequestIDHeader {
		t.Errorf("expected request id to be exposed")
	}
}
