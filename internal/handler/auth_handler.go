package handler

import (
	"net/http"
	"time"

	"github.com/Zlatonn/mern-auth/internal/middleware"
	"github.com/Zlatonn/mern-auth/internal/token"
	"github.com/Zlatonn/mern-auth/internal/usecase"
	"go.uber.org/zap"
)

type AuthHandler struct {
	usecase       *usecase.AuthUsecase
	tokens        *token.Service
	secureCookies bool
	logger        *zap.Logger
}

func NewAuthHandler(ucase *usecase.AuthUsecase, tokens *token.Service, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		usecase:       ucase,
		tokens:        tokens,
		secureCookies: secureCookies,
		logger:        logger.Named("AuthHandler"),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	userID, tok, err := h.usecase.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Failed to register user", zap.String("email", req.Email), zap.Error(err))
		respondError(w, err)
		return
	}

	h.setSessionCookie(w, tok)
	h.logger.Info("User registered", zap.String("userID", userID), zap.String("email", req.Email))
	respondOK(w, "Registered")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	userID, tok, err := h.usecase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Failed to login user", zap.String("email", req.Email), zap.Error(err))
		respondError(w, err)
		return
	}

	h.setSessionCookie(w, tok)
	h.logger.Info("User logged in", zap.String("userID", userID))
	respondOK(w, "Logged in")
}

// Logout always succeeds. It clears the cookie and, when the request carried
// a valid token, revokes that session for its remaining lifetime.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if claims, err := h.tokens.Verify(cookie.Value); err == nil {
			h.usecase.Logout(r.Context(), claims)
		}
	}

	h.clearSessionCookie(w)
	respondOK(w, "Logged out")
}

func (h *AuthHandler) SendVerifyOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		unauthenticated(w)
		return
	}

	if err := h.usecase.SendVerifyOTP(r.Context(), userID); err != nil {
		h.logger.Warn("Failed to send verification OTP", zap.String("userID", userID), zap.Error(err))
		respondError(w, err)
		return
	}
	respondOK(w, "Verification OTP sent on email")
}

func (h *AuthHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		unauthenticated(w)
		return
	}

	var req struct {
		OTP string `json:"otp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.usecase.VerifyEmail(r.Context(), userID, req.OTP); err != nil {
		h.logger.Warn("Failed to verify email", zap.String("userID", userID), zap.Error(err))
		respondError(w, err)
		return
	}
	respondOK(w, "Email verified successfully")
}

// IsAuthenticated confirms success; the session guard already validated the
// caller.
func (h *AuthHandler) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "User is authenticated")
}

func (h *AuthHandler) SendResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.usecase.SendResetOTP(r.Context(), req.Email); err != nil {
		h.logger.Warn("Failed to send reset OTP", zap.String("email", req.Email), zap.Error(err))
		respondError(w, err)
		return
	}
	respondOK(w, "OTP sent to your email")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.usecase.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.logger.Warn("Failed to reset password", zap.String("email", req.Email), zap.Error(err))
		respondError(w, err)
		return
	}
	respondOK(w, "Password has been reset successfully")
}

// setSessionCookie attaches the session token: HTTP-only, 7-day max age,
// cross-site-restricted unless running on a secured transport (then relaxed
// to permit cross-site use).
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, tok string) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(token.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
	if h.secureCookies {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
	if h.secureCookies {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}
