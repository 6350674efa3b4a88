package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/unclebandit/groundzero-backend/internal/config"
	"github.com/unclebandit/groundzero-backend/internal/logger"
)

const (
	AdminEmailHeader = "X-Admin-Email"
	tokenCost        = 12
)

// HashToken produces the value expected in admin.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), tokenCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// AdminOnly gates the admin API. A request must carry a bearer token that
// matches cfg.TokenHash and an X-Admin-Email on the whitelist. With no
// token hash configured every admin request is refused.
func AdminOnly(cfg config.AdminConfig, log logger.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.Emails))
	for _, e := range cfg.Emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = true
		}
	}
	if cfg.TokenHash == "" {
		log.Warn("admin.token_hash is empty, admin API disabled", nil)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.ToLower(strings.TrimSpace(r.Header.Get(AdminEmailHeader)))
			token, ok := bearerToken(r)
			if !ok || cfg.TokenHash == "" ||
				bcrypt.CompareHashAndPassword([]byte(cfg.TokenHash), []byte(token)) != nil {
				deny(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !allowed[email] {
				log.Warn("admin request from unlisted email", map[string]interface{}{
					"email": email,
					"path":  r.URL.Path,
				})
				deny(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
