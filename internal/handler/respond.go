package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Zlatonn/mern-auth/internal/otp"
	"github.com/Zlatonn/mern-auth/internal/repository"
	"github.com/Zlatonn/mern-auth/internal/usecase"
)

// response is the uniform envelope every endpoint returns. Code is the
// machine-readable taxonomy constant, present on failures only.
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: message})
}

func respondData(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: message, Data: data})
}

// errorStatus maps a business error to HTTP status, taxonomy code and
// user-visible message. Unknown errors become a generic internal failure so
// store or mailer details never leak to the client.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, usecase.ErrMissingFields):
		return http.StatusBadRequest, "MISSING_FIELDS", "Missing details"
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"
	case errors.Is(err, usecase.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_TAKEN", "User already exists"
	case errors.Is(err, usecase.ErrAlreadyVerified):
		return http.StatusConflict, "ALREADY_VERIFIED", "Account already verified"
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "User not found"
	case errors.Is(err, otp.ErrInvalid):
		return http.StatusBadRequest, "INVALID_OTP", "Invalid OTP"
	case errors.Is(err, otp.ErrExpired):
		return http.StatusBadRequest, "EXPIRED_OTP", "OTP expired"
	default:
		return http.StatusInternalServerError, "INTERNAL", "Something went wrong"
	}
}

func respondError(w http.ResponseWriter, err error) {
	status, code, message := errorStatus(err)
	writeJSON(w, status, response{Success: false, Message: message, Code: code})
}

func respondInvalidBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "Invalid request body", Code: "INVALID_BODY"})
}
