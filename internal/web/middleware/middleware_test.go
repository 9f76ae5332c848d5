package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/bizdir/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSuperAdmin(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}
	handler := SuperAdmin(cfg)(okHandler())

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"unknown key", "gamma", http.StatusUnauthorized},
		{"first key", "alpha", http.StatusNoContent},
		{"second key", "beta", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/businesses/import", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Body.String() != unauthorizedBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), unauthorizedBody)
			}
		})
	}
}

func TestSuperAdmin_Disabled(t *testing.T) {
	handler := SuperAdmin(&config.SecurityConfig{RequireAPIKey: false})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps connection ip", "203.0.113.9:5555", map[string]string{"X-Real-IP": "1.1.1.1"}, "203.0.113.9"},
		{"trusted uses x-real-ip", "10.0.0.2:5555", map[string]string{"X-Real-IP": "1.1.1.1"}, "1.1.1.1"},
		{"trusted uses first forwarded hop", "10.0.0.2:5555", map[string]string{"X-Forwarded-For": "2.2.2.2, 10.0.0.3"}, "2.2.2.2"},
		{"trusted ignores garbage header", "10.0.0.2:5555", map[string]string{"X-Real-IP": "not-an-ip"}, "10.0.0.2"},
		{"bare trusted ip", "192.168.1.1:80", map[string]string{"X-Real-IP": "3.3.3.3"}, "3.3.3.3"},
	}

	handler := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.1", "bogus"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
