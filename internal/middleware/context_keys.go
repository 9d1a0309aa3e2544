package middleware

// ContextKey is a dedicated type for context keys to avoid collisions.
type ContextKey string

const (
	// UserIDCtxKey holds the authenticated user's ID, injected by SessionGuard.
	UserIDCtxKey = ContextKey("user_id")

	// SessionClaimsCtxKey holds the verified token claims for the request.
	SessionClaimsCtxKey = ContextKey("session_claims")
)
