package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Zlatonn/mern-auth/internal/entity"
	"github.com/Zlatonn/mern-auth/internal/mailer"
	"github.com/Zlatonn/mern-auth/internal/otp"
	"github.com/Zlatonn/mern-auth/internal/repository"
	"github.com/Zlatonn/mern-auth/internal/token"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields      = errors.New("missing details")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyVerified    = errors.New("account already verified")
)

const (
	verifyOTPTTL = 24 * time.Hour
	resetOTPTTL  = 15 * time.Minute
)

// UserStore persists user records keyed by unique email. The store hashes
// passwords on write; plaintext never reaches a document.
type UserStore interface {
	CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, userID primitive.ObjectID) (*entity.User, error)
	SaveVerifyOTP(ctx context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error
	SaveResetOTP(ctx context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error
	ConsumeVerifyOTP(ctx context.Context, userID primitive.ObjectID, code string) error
	ConsumeResetOTP(ctx context.Context, userID primitive.ObjectID, code string) error
	MarkAccountVerified(ctx context.Context, userID primitive.ObjectID) error
	UpdatePassword(ctx context.Context, userID primitive.ObjectID, newPassword string) error
}

// SessionStore tracks revoked session tokens.
type SessionStore interface {
	RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
}

// UserData is the authenticated profile view exposed to the client.
type UserData struct {
	Name              string `json:"name"`
	IsAccountVerified bool   `json:"isAccountVerified"`
}

type AuthUsecase struct {
	store    UserStore
	sessions SessionStore
	mailer   mailer.Mailer
	tokens   *token.Service
	logger   *zap.Logger
}

func NewAuthUsecase(store UserStore, sessions SessionStore, m mailer.Mailer, tokens *token.Service, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		store:    store,
		sessions: sessions,
		mailer:   m,
		tokens:   tokens,
		logger:   logger.Named("AuthUsecase"),
	}
}

// Register creates the user, issues a session token, and sends a welcome
// email. The welcome mail is best effort: a send failure is logged but does
// not fail the registration.
func (u *AuthUsecase) Register(ctx context.Context, name, email, password string) (string, string, error) {
	if name == "" || email == "" || password == "" {
		return "", "", ErrMissingFields
	}

	user := &entity.User{
		Name:     name,
		Email:    email,
		Password: password, // Will be hashed in the repository
	}

	userID, err := u.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", "", ErrEmailTaken
		}
		return "", "", err
	}

	tok, err := u.tokens.Issue(userID.Hex())
	if err != nil {
		return "", "", err
	}

	if err := u.mailer.SendWelcome(email, name); err != nil {
		u.logger.Warn("Failed to send welcome email", zap.String("email", email), zap.Error(err))
	}

	return userID.Hex(), tok, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password collapse into the same error so the response does not disclose
// whether an account exists.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (string, string, error) {
	if email == "" || password == "" {
		return "", "", ErrMissingFields
	}

	user, err := u.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	tok, err := u.tokens.Issue(user.ID.Hex())
	if err != nil {
		return "", "", err
	}

	return user.ID.Hex(), tok, nil
}

// Logout revokes the presented session for its remaining lifetime. It never
// fails: without a valid token, or with the revocation store down, logout
// degrades to the caller clearing its cookie.
func (u *AuthUsecase) Logout(ctx context.Context, claims *token.Claims) {
	if claims == nil || claims.TokenID == "" {
		return
	}
	if err := u.sessions.RevokeSession(ctx, claims.TokenID, time.Until(claims.ExpiresAt)); err != nil {
		u.logger.Warn("Failed to revoke session on logout", zap.String("tokenID", claims.TokenID), zap.Error(err))
	}
}

// SendVerifyOTP binds a fresh verification code to the user and mails it.
func (u *AuthUsecase) SendVerifyOTP(ctx context.Context, userID string) error {
	user, err := u.loadUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAccountVerified {
		return ErrAlreadyVerified
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	if err := u.store.SaveVerifyOTP(ctx, user.ID, code, time.Now().Add(verifyOTPTTL)); err != nil {
		return err
	}

	if err := u.mailer.SendVerifyOTP(user.Email, user.Name, code); err != nil {
		u.logger.Error("Failed to send verification OTP email", zap.String("userID", user.ID.Hex()), zap.Error(err))
		return err
	}
	return nil
}

// VerifyEmail consumes the verification code and marks the account verified.
// The conditional consume makes a replayed code lose even under concurrency.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, userID, code string) error {
	if userID == "" || code == "" {
		return ErrMissingFields
	}

	user, err := u.loadUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := otp.Validate(user.VerifyOTP, user.VerifyOTPExpireAt, code, time.Now()); err != nil {
		return err
	}
	if err := u.store.ConsumeVerifyOTP(ctx, user.ID, code); err != nil {
		if errors.Is(err, repository.ErrOTPMismatch) {
			return otp.ErrInvalid
		}
		return err
	}

	return u.store.MarkAccountVerified(ctx, user.ID)
}

// SendResetOTP binds a fresh password-reset code to the user and mails it.
func (u *AuthUsecase) SendResetOTP(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingFields
	}

	user, err := u.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	if err := u.store.SaveResetOTP(ctx, user.ID, code, time.Now().Add(resetOTPTTL)); err != nil {
		return err
	}

	if err := u.mailer.SendResetOTP(user.Email, user.Name, code); err != nil {
		u.logger.Error("Failed to send reset OTP email", zap.String("userID", user.ID.Hex()), zap.Error(err))
		return err
	}
	return nil
}

// ResetPassword consumes the reset code and replaces the password hash.
func (u *AuthUsecase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingFields
	}

	user, err := u.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := otp.Validate(user.ResetOTP, user.ResetOTPExpireAt, code, time.Now()); err != nil {
		return err
	}
	if err := u.store.ConsumeResetOTP(ctx, user.ID, code); err != nil {
		if errors.Is(err, repository.ErrOTPMismatch) {
			return otp.ErrInvalid
		}
		return err
	}

	return u.store.UpdatePassword(ctx, user.ID, newPassword)
}

// GetUserData returns the profile view for an authenticated user.
func (u *AuthUsecase) GetUserData(ctx context.Context, userID string) (*UserData, error) {
	user, err := u.loadUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserData{
		Name:              user.Name,
		IsAccountVerified: user.IsAccountVerified,
	}, nil
}

func (u *AuthUsecase) loadUserByID(ctx context.Context, userID string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}
	return u.store.GetUserByID(ctx, oid)
}
