package ws

import (
	"net/http"
	"strings"

	"go_netinv/internal/auth"
	"go_netinv/internal/util"
)

// extractToken reads the JWT from the token query parameter (socket.io
// clients send auth.token that way) or a Bearer Authorization header.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// WrapWithAuth rejects Socket.IO handshakes without a valid JWT
func WrapWithAuth(next http.Handler) http.Handler {
	logger := util.WithComponent("ws")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/socket.io/") {
			token := extractToken(r)
			if token == "" {
				logger.WithField("remote", r.RemoteAddr).Info("handshake rejected: no token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseToken(token)
			if err != nil {
				logger.WithField("remote", r.RemoteAddr).WithError(err).Info("handshake rejected: invalid token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			logger.WithField("user", claims.Username).Debug("handshake accepted")
		}
		next.ServeHTTP(w, r)
	})
}
