package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Zlatonn/mern-auth/internal/token"
	"github.com/Zlatonn/mern-auth/internal/usecase"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// SessionGuard verifies the session cookie, rejects revoked sessions, and
// injects the resolved user ID into the request context. It never loads the
// user record; that remains each operation's responsibility.
func SessionGuard(tokens *token.Service, sessions usecase.SessionStore, logger *zap.Logger) func(http.Handler) http.Handler {
	log := logger.Named("SessionGuard")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthenticated(w)
				return
			}

			claims, err := tokens.Verify(cookie.Value)
			if err != nil {
				log.Debug("Session token verification failed", zap.Error(err))
				unauthenticated(w)
				return
			}

			revoked, err := sessions.IsSessionRevoked(r.Context(), claims.TokenID)
			if err != nil {
				// Revocation store unavailable: fail closed for guarded routes.
				log.Error("Failed to check session revocation", zap.String("tokenID", claims.TokenID), zap.Error(err))
				unauthenticated(w)
				return
			}
			if revoked {
				unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, claims.UserID)
			ctx = context.WithValue(ctx, SessionClaimsCtxKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "Not authorized. Login again",
		"code":    "UNAUTHENTICATED",
	})
}
