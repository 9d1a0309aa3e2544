package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Zlatonn/mern-auth/internal/middleware"
	"github.com/Zlatonn/mern-auth/internal/usecase"
	"go.uber.org/zap"
)

type UserHandler struct {
	usecase *usecase.AuthUsecase
	logger  *zap.Logger
}

func NewUserHandler(ucase *usecase.AuthUsecase, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		usecase: ucase,
		logger:  logger.Named("UserHandler"),
	}
}

// GetUserData returns the caller's display name and verification flag.
func (h *UserHandler) GetUserData(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		unauthenticated(w)
		return
	}

	data, err := h.usecase.GetUserData(r.Context(), userID)
	if err != nil {
		h.logger.Warn("Failed to get user data", zap.String("userID", userID), zap.Error(err))
		respondError(w, err)
		return
	}
	respondData(w, "User data", data)
}

func userIDFromContext(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(middleware.UserIDCtxKey).(string)
	return userID, ok && userID != ""
}

func unauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, response{
		Success: false,
		Message: "Not authorized. Login again",
		Code:    "UNAUTHENTICATED",
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
