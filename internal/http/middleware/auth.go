package middleware

import (
	"net/http"
	"strings"

	"github.com/FrogonXO/shopify-student-verify/internal/http/response"
	"github.com/FrogonXO/shopify-student-verify/internal/security"
)

// RequireCronSecret guards the reconciliation endpoints that an external
// scheduler invokes over plain HTTP. The caller authenticates with
// `Authorization: Bearer <secret>` compared in constant time.
func RequireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !security.SecretsEqual(bearerToken(r), secret) {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid cron secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
