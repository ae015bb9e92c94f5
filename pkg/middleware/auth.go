package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"otp-verification/pkg/utils"

	"go.uber.org/zap"
)

// RequireAuthorization is the caller gate in front of the OTP endpoints.
// A missing Authorization header is always rejected. When keys is non-empty
// the bearer token must equal one of them; otherwise any credential passes,
// leaving the real check to whatever sits in front of this service.
func RequireAuthorization(keys []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "missing authorization")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			if len(keys) > 0 && !matchesAny(token, keys) {
				logger.Warn("Rejected caller credential",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr),
				)
				utils.ResponseUnauthorized(w, "invalid authorization")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func matchesAny(token string, keys []string) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare([]byte(token), []byte(k))
	}
	return found == 1
}
