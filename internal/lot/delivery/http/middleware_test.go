package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/auth"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict int
		want     int
	}{
		{"validation", domain.NewValidationError("op", "bad"), http.StatusConflict, http.StatusBadRequest},
		{"not found", domain.NewNotFoundError("op", "missing"), http.StatusConflict, http.StatusNotFound},
		{"conflict as 409", domain.NewConflictError("op", "taken"), http.StatusConflict, http.StatusConflict},
		{"conflict as 400", domain.NewConflictError("op", "taken"), http.StatusBadRequest, http.StatusBadRequest},
		{"persistence", domain.NewPersistenceError("op", errors.New("boom")), http.StatusConflict, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusConflict, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err, tt.conflict); got != tt.want {
				t.Fatalf("errorStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMiddlewareChain(t *testing.T) {
	router := mux.NewRouter()
	RegisterMiddlewares(router, DefaultMiddlewareConfig(time.Second))
	router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
		panic("reader firmware sent garbage")
	})
	router.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("X-Request-ID = %q, want the caller's id", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic status = %d, want 500", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	var seen *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	AuthMiddleware("", false)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || seen != nil {
		t.Fatalf("disabled auth: status %d, claims %v", rec.Code, seen)
	}

	token, err := auth.GenerateToken(auth.Claims{UserID: 7, Nom: "Sami", Prenom: "Trabelsi", ChaineID: "CH1"}, "s3cret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + mustToken(t, "other"), http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware("s3cret", true)(next).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (seen == nil || seen.ChaineID != "CH1") {
				t.Fatalf("claims not propagated: %+v", seen)
			}
		})
	}
}

func mustToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := auth.GenerateToken(auth.Claims{UserID: 1}, secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func TestRateLimiterWithoutRedisPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, rl := range []*RateLimiter{nil, NewRateLimiter(nil, 1, time.Minute, nil)} {
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			rl.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/lots/detect-count", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
			}
		}
	}
}

func TestClientIP(t *testing.T) {
	direct := NewRateLimiter(nil, 10, time.Minute, nil)
	proxied := NewRateLimiter(nil, 10, time.Minute, []string{"10.0.0.1", "172.16.0.0/12", "not-an-ip"})

	tests := []struct {
		name    string
		limiter *RateLimiter
		remote  string
		xff     string
		want    string
	}{
		{"peer address", direct, "10.0.0.5:51234", "", "10.0.0.5"},
		{"forwarded header ignored without trusted proxies", direct, "10.0.0.5:51234", "1.1.1.1", "10.0.0.5"},
		{"forwarded header ignored from untrusted peer", proxied, "10.0.0.5:51234", "2.2.2.2", "10.0.0.5"},
		{"garbage header from untrusted peer", proxied, "10.0.0.5:51234", "anything-at-all", "10.0.0.5"},
		{"trusted proxy", proxied, "10.0.0.1:443", "192.168.1.20", "192.168.1.20"},
		{"right-most untrusted hop", proxied, "10.0.0.1:443", "6.6.6.6, 192.168.1.20, 172.16.3.4", "192.168.1.20"},
		{"trusted proxy without header", proxied, "10.0.0.1:443", "", "10.0.0.1"},
		{"trusted proxy with malformed header", proxied, "10.0.0.1:443", "anything-at-all", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := tt.limiter.clientIP(req); got != tt.want {
				t.Fatalf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIPStableAcrossSpoofedHeaders(t *testing.T) {
	rl := NewRateLimiter(nil, 10, time.Minute, nil)
	keys := map[string]struct{}{}
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "anything-at-all"} {
		req := httptest.NewRequest(http.MethodPost, "/api/lots/detect-count", nil)
		req.RemoteAddr = "10.0.0.5:40000"
		req.Header.Set("X-Forwarded-For", xff)
		keys[rl.clientIP(req)] = struct{}{}
	}
	if len(keys) != 1 {
		t.Fatalf("expected one limiter key for one peer, got %v", keys)
	}
}

func TestWindowMemberUniqueWithinNanosecond(t *testing.T) {
	now := time.Unix(1700000000, 42)
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		m := windowMember(now)
		if !strings.HasPrefix(m, "1700000000000000042:") {
			t.Fatalf("member %q does not start with the timestamp", m)
		}
		if _, dup := seen[m]; dup {
			t.Fatalf("duplicate member %q", m)
		}
		seen[m] = struct{}{}
	}
}
