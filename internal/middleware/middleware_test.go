package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unclebandit/groundzero-backend/internal/config"
	"github.com/unclebandit/groundzero-backend/internal/logger"
)

func adminRouter(t *testing.T, cfg config.AdminConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(AdminOnly(cfg, logger.NewTestLogger(t)))
	r.Get("/admin", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	return r
}

func lowCostHash(t *testing.T, token string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAdminOnly(t *testing.T) {
	cfg := config.AdminConfig{
		TokenHash: lowCostHash(t, "s3cret-token"),
		Emails:    []string{"ground0ai.lab@gmail.com"},
	}
	h := adminRouter(t, cfg)

	cases := []struct {
		name   string
		auth   string
		email  string
		status int
	}{
		{"ok", "Bearer s3cret-token", "ground0ai.lab@gmail.com", http.StatusNoContent},
		{"email case-insensitive", "bearer s3cret-token", " Ground0AI.lab@gmail.com", http.StatusNoContent},
		{"missing token", "", "ground0ai.lab@gmail.com", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", "ground0ai.lab@gmail.com", http.StatusUnauthorized},
		{"basic scheme", "Basic s3cret-token", "ground0ai.lab@gmail.com", http.StatusUnauthorized},
		{"unlisted email", "Bearer s3cret-token", "intruder@example.com", http.StatusForbidden},
		{"no email", "Bearer s3cret-token", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			if tc.email != "" {
				req.Header.Set(AdminEmailHeader, tc.email)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status >= 400 {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestAdminOnly_NoHashConfigured(t *testing.T) {
	h := adminRouter(t, config.AdminConfig{Emails: []string{"a@b.com"}})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer anything")
	req.Header.Set(AdminEmailHeader, "a@b.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHashToken(t *testing.T) {
	hash, err := HashToken("correct horse battery staple")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse battery staple")))
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, tokenCost, cost)
}

func TestRequestLoggerAndHeaders(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, RequestLogger(logger.NewTestLogger(t)), SecurityHeaders)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
