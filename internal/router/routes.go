package router

import (
	"net/http"

	"github.com/Zlatonn/mern-auth/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures the auth and user routes. Guarded routes run behind
// the session guard middleware.
func SetupRoutes(r *chi.Mux, authHandler *handler.AuthHandler, userHandler *handler.UserHandler, guard func(http.Handler) http.Handler) {
	// Public auth routes
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/logout", authHandler.Logout)
	r.Post("/api/auth/send-reset-otp", authHandler.SendResetOTP)
	r.Post("/api/auth/reset-password", authHandler.ResetPassword)

	// Protected routes (require a valid session cookie)
	r.Group(func(authRouter chi.Router) {
		authRouter.Use(guard)

		authRouter.Post("/api/auth/send-verify-otp", authHandler.SendVerifyOTP)
		authRouter.Post("/api/auth/verify-account", authHandler.VerifyAccount)
		authRouter.Get("/api/auth/is-authenticated", authHandler.IsAuthenticated)
		authRouter.Post("/api/auth/is-authenticated", authHandler.IsAuthenticated)

		authRouter.Get("/api/user/data", userHandler.GetUserData)
	})
}
