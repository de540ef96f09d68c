package admin

import (
	"net/http"
	"strings"

	httperrors "github.com/vicky05092005/statatics-quiz/pkg/http/errors"
)

// Middleware rejects requests lacking a valid admin session token. The token
// travels as "Authorization: Bearer <token>" or, for the WebSocket endpoint,
// as a "token" query parameter.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Admin authentication required")
			return
		}
		if _, err := a.Validate(token); err != nil {
			a.logger.Warn().Err(err).Msg("token validation failed")
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
