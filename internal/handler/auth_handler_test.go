package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Zlatonn/mern-auth/internal/entity"
	"github.com/Zlatonn/mern-auth/internal/handler"
	"github.com/Zlatonn/mern-auth/internal/middleware"
	"github.com/Zlatonn/mern-auth/internal/repository"
	"github.com/Zlatonn/mern-auth/internal/router"
	"github.com/Zlatonn/mern-auth/internal/token"
	"github.com/Zlatonn/mern-auth/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*entity.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[primitive.ObjectID]*entity.User)}
}

func (s *memStore) CreateUser(_ context.Context, user *entity.User) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.MinCost)
	if err != nil {
		return primitive.NilObjectID, err
	}
	cp := *user
	cp.ID = primitive.NewObjectID()
	cp.Password = string(hash)
	s.users[cp.ID] = &cp
	return cp.ID, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memStore) GetUserByID(_ context.Context, userID primitive.ObjectID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) SaveVerifyOTP(_ context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.VerifyOTP = code
	u.VerifyOTPExpireAt = expiresAt
	return nil
}

func (s *memStore) SaveResetOTP(_ context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetOTP = code
	u.ResetOTPExpireAt = expiresAt
	return nil
}

func (s *memStore) ConsumeVerifyOTP(_ context.Context, userID primitive.ObjectID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.VerifyOTP == "" || u.VerifyOTP != code {
		return repository.ErrOTPMismatch
	}
	u.VerifyOTP = ""
	u.VerifyOTPExpireAt = time.Time{}
	return nil
}

func (s *memStore) ConsumeResetOTP(_ context.Context, userID primitive.ObjectID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.ResetOTP == "" || u.ResetOTP != code {
		return repository.ErrOTPMismatch
	}
	u.ResetOTP = ""
	u.ResetOTPExpireAt = time.Time{}
	return nil
}

func (s *memStore) MarkAccountVerified(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsAccountVerified = true
	return nil
}

func (s *memStore) UpdatePassword(_ context.Context, userID primitive.ObjectID, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

type memMailer struct {
	mu          sync.Mutex
	verifyCodes map[string]string
	resetCodes  map[string]string
}

func newMemMailer() *memMailer {
	return &memMailer{verifyCodes: make(map[string]string), resetCodes: make(map[string]string)}
}

func (m *memMailer) SendWelcome(_, _ string) error { return nil }

func (m *memMailer) SendVerifyOTP(toEmail, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCodes[toEmail] = code
	return nil
}

func (m *memMailer) SendResetOTP(toEmail, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCodes[toEmail] = code
	return nil
}

type memSessions struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemSessions() *memSessions {
	return &memSessions{revoked: make(map[string]bool)}
}

func (s *memSessions) RevokeSession(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		s.revoked[tokenID] = true
	}
	return nil
}

func (s *memSessions) IsSessionRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenID], nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *chi.Mux
	mailer *memMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := newMemStore()
	mail := newMemMailer()
	sessions := newMemSessions()
	tokens := token.NewService("test-secret")

	uc := usecase.NewAuthUsecase(store, sessions, mail, tokens, logger)
	authHandler := handler.NewAuthHandler(uc, tokens, false, logger)
	userHandler := handler.NewUserHandler(uc, logger)
	guard := middleware.SessionGuard(tokens, sessions, logger)

	r := chi.NewRouter()
	router.SetupRoutes(r, authHandler, userHandler, guard)

	return &testServer{router: r, mailer: mail}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	resp := rec.Result()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "Registered", env.Message)

	cookie := sessionCookie(t, resp)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int(token.SessionTTL/time.Second), cookie.MaxAge)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"}

	_, env := srv.do(t, http.MethodPost, "/api/auth/register", body)
	require.True(t, env.Success)

	resp, env := srv.do(t, http.MethodPost, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "EMAIL_TAKEN", env.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_FIELDS", env.Code)
}

func TestLoginScenario(t *testing.T) {
	srv := newTestServer(t)

	_, env := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"})
	require.True(t, env.Success)

	resp, env := srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Code)

	// Unknown accounts produce the same failure as wrong passwords.
	resp, env = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "nobody@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Code)

	resp, env = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "a@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.NotEmpty(t, sessionCookie(t, resp).Value)
}

func TestSessionGuard(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.do(t, http.MethodGet, "/api/auth/is-authenticated", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)

	garbage := &http.Cookie{Name: middleware.SessionCookieName, Value: "not-a-token"}
	resp, env = srv.do(t, http.MethodGet, "/api/auth/is-authenticated", nil, garbage)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)

	registerResp, _ := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"})
	cookie := sessionCookie(t, registerResp)

	resp, env = srv.do(t, http.MethodGet, "/api/auth/is-authenticated", nil, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "User is authenticated", env.Message)
}

func TestLogoutClearsAndRevokesSession(t *testing.T) {
	srv := newTestServer(t)

	registerResp, _ := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"})
	cookie := sessionCookie(t, registerResp)

	logoutResp, env := srv.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	assert.True(t, env.Success)
	assert.Equal(t, "Logged out", env.Message)
	assert.Negative(t, sessionCookie(t, logoutResp).MaxAge)

	// The revoked token no longer passes the guard even if replayed.
	resp, env := srv.do(t, http.MethodGet, "/api/auth/is-authenticated", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestVerifyAccountFlow(t *testing.T) {
	srv := newTestServer(t)

	registerResp, _ := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"})
	cookie := sessionCookie(t, registerResp)

	_, env := srv.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, cookie)
	require.True(t, env.Success)
	code := srv.mailer.verifyCodes["a@x.com"]
	require.Len(t, code, 6)

	resp, env := srv.do(t, http.MethodPost, "/api/auth/verify-account",
		map[string]string{"otp": "000000"}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_OTP", env.Code)

	resp, env = srv.do(t, http.MethodPost, "/api/auth/verify-account",
		map[string]string{"otp": code}, cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	// Second send fails once verified.
	resp, env = srv.do(t, http.MethodPost, "/api/auth/send-verify-otp", nil, cookie)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_VERIFIED", env.Code)

	// Verified flag is visible in user data.
	_, env = srv.do(t, http.MethodGet, "/api/user/data", nil, cookie)
	require.True(t, env.Success)
	var data usecase.UserData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Alice", data.Name)
	assert.True(t, data.IsAccountVerified)
}

func TestResetPasswordFlow(t *testing.T) {
	srv := newTestServer(t)

	_, env := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Alice", "email": "a@x.com", "password": "pw1"})
	require.True(t, env.Success)

	resp, env := srv.do(t, http.MethodPost, "/api/auth/send-reset-otp",
		map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", env.Code)

	_, env = srv.do(t, http.MethodPost, "/api/auth/send-reset-otp",
		map[string]string{"email": "a@x.com"})
	require.True(t, env.Success)
	code := srv.mailer.resetCodes["a@x.com"]
	require.Len(t, code, 6)

	resp, env = srv.do(t, http.MethodPost, "/api/auth/reset-password",
		map[string]string{"email": "a@x.com", "otp": code, "newPassword": "pw2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	// Old password rejected, new one accepted.
	resp, env = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "a@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Code)

	resp, env = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "a@x.com", "password": "pw2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	// The consumed reset code cannot be replayed.
	resp, env = srv.do(t, http.MethodPost, "/api/auth/reset-password",
		map[string]string{"email": "a@x.com", "otp": code, "newPassword": "pw3"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_OTP", env.Code)
}
