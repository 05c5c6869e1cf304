package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testAuthMiddleware(t *testing.T) *JWTAuthMiddleware {
	t.Helper()
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return NewJWTAuthMiddleware(JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret",
		JWTExpiryHours:    1,
		SkipPaths:         []string{"/health", "/api/status", "/auth/*"},
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestValidateCredentials(t *testing.T) {
	m := testAuthMiddleware(t)

	if !m.ValidateCredentials("admin", "correct-horse") {
		t.Error("valid credentials rejected")
	}
	if m.ValidateCredentials("admin", "wrong") {
		t.Error("wrong password accepted")
	}
	if m.ValidateCredentials("root", "correct-horse") {
		t.Error("wrong username accepted")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := testAuthMiddleware(t)

	token, expiresAt, err := m.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if expiresAt.IsZero() {
		t.Error("expected a token expiry time")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username admin, got %s", claims.Username)
	}
	if claims.Issuer != "statusboard" {
		t.Errorf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	m := testAuthMiddleware(t)
	other := NewJWTAuthMiddleware(JWTAuthConfig{JWTSecret: "different-secret", JWTExpiryHours: 1})

	token, _, err := other.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
	if _, err := m.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token should be rejected")
	}
}

func TestWrapRequiresToken(t *testing.T) {
	m := testAuthMiddleware(t)
	handler := m.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/incidents/abc/acknowledge", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestWrapAcceptsValidToken(t *testing.T) {
	m := testAuthMiddleware(t)

	var user string
	handler := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, _, err := m.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/incidents/abc/acknowledge", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with a valid token, got %d", w.Code)
	}
	if user != "admin" {
		t.Errorf("expected user in context, got %q", user)
	}
}

func TestWrapSkipPaths(t *testing.T) {
	m := testAuthMiddleware(t)
	handler := m.Wrap(okHandler())

	for _, path := range []string{"/health", "/api/status", "/auth/login"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected %s to skip auth, got %d", path, w.Code)
		}
	}
}

func TestWrapMethodScopedSkipPaths(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	m := NewJWTAuthMiddleware(JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret",
		JWTExpiryHours:    1,
		SkipPaths:         []string{"GET /api/incidents*"},
	})
	handler := m.Wrap(okHandler())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/incidents", http.StatusOK},
		{http.MethodGet, "/api/incidents/abc123", http.StatusOK},
		{http.MethodHead, "/api/incidents", http.StatusOK},
		{http.MethodPost, "/api/incidents/abc123/comments", http.StatusUnauthorized},
		{http.MethodPatch, "/api/incidents/abc123/acknowledge", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
	}
}

func TestWrapDisabledPassesThrough(t *testing.T) {
	m := NewJWTAuthMiddleware(JWTAuthConfig{Enabled: false})
	handler := m.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/anything", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("disabled auth should pass requests through, got %d", w.Code)
	}
}
