package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zlatonn/mern-auth/internal/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail = errors.New("email already exists")
	ErrUserNotFound   = errors.New("user not found")
	// ErrOTPMismatch is returned when a conditional OTP consume matches no
	// document: the stored code was empty, different, or already consumed.
	ErrOTPMismatch = errors.New("otp mismatch")
)

type mongoUser struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Name              string             `bson:"name"`
	Email             string             `bson:"email"`
	Password          string             `bson:"password"`
	IsAccountVerified bool               `bson:"is_account_verified"`
	VerifyOTP         string             `bson:"verify_otp,omitempty"`
	VerifyOTPExpireAt time.Time          `bson:"verify_otp_expire_at,omitempty"`
	ResetOTP          string             `bson:"reset_otp,omitempty"`
	ResetOTPExpireAt  time.Time          `bson:"reset_otp_expire_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (m *mongoUser) toEntity() *entity.User {
	return &entity.User{
		ID:                m.ID,
		Name:              m.Name,
		Email:             m.Email,
		Password:          m.Password,
		IsAccountVerified: m.IsAccountVerified,
		VerifyOTP:         m.VerifyOTP,
		VerifyOTPExpireAt: m.VerifyOTPExpireAt,
		ResetOTP:          m.ResetOTP,
		ResetOTPExpireAt:  m.ResetOTPExpireAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func fromEntity(e *entity.User) *mongoUser {
	return &mongoUser{
		ID:                e.ID,
		Name:              e.Name,
		Email:             e.Email,
		Password:          e.Password,
		IsAccountVerified: e.IsAccountVerified,
		VerifyOTP:         e.VerifyOTP,
		VerifyOTPExpireAt: e.VerifyOTPExpireAt,
		ResetOTP:          e.ResetOTP,
		ResetOTPExpireAt:  e.ResetOTPExpireAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

type UserRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

func NewUserRepository(db *mongo.Database, logger *zap.Logger) *UserRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure indexes (idempotent operation)
	userCollection := db.Collection("users")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := userCollection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Warn("Failed to create indexes for users collection (may already exist)", zap.Error(err))
	} else {
		logger.Info("Successfully ensured indexes for users collection")
	}

	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

// CreateUser hashes the plaintext password and inserts the user. The unique
// email index turns a duplicate registration into ErrDuplicateEmail.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (primitive.ObjectID, error) {
	r.logger.Info("Attempting to create user in repository", zap.String("email", user.Email))
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		r.logger.Error("Failed to hash password during user creation", zap.String("email", user.Email), zap.Error(err))
		return primitive.NilObjectID, err
	}

	dbUser := fromEntity(user)
	dbUser.Password = string(hashedPassword)
	if dbUser.ID.IsZero() {
		dbUser.ID = primitive.NewObjectID()
	}
	now := time.Now()
	dbUser.CreatedAt = now
	dbUser.UpdatedAt = now
	dbUser.IsAccountVerified = false
	dbUser.VerifyOTP = ""
	dbUser.VerifyOTPExpireAt = time.Time{}
	dbUser.ResetOTP = ""
	dbUser.ResetOTPExpireAt = time.Time{}

	_, err = r.db.Collection("users").InsertOne(ctx, dbUser)
	if err != nil {
		var writeException mongo.WriteException
		if errors.As(err, &writeException) {
			for _, writeError := range writeException.WriteErrors {
				if writeError.Code == 11000 && strings.Contains(writeError.Message, "email_1") {
					r.logger.Warn("Duplicate email during user creation", zap.String("email", user.Email), zap.Error(writeError))
					return primitive.NilObjectID, ErrDuplicateEmail
				}
			}
		}
		r.logger.Error("Database error during user creation", zap.String("email", user.Email), zap.Error(err))
		return primitive.NilObjectID, err
	}
	r.logger.Info("User created successfully in repository", zap.String("userID", dbUser.ID.Hex()))
	return dbUser.ID, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.logger.Debug("Attempting to get user by email from repository", zap.String("email", email))
	var dbUser mongoUser
	err := r.db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found by email in repository", zap.String("email", email))
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error fetching user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*entity.User, error) {
	r.logger.Debug("Attempting to get user by ID from repository", zap.String("userID", userID.Hex()))
	var dbUser mongoUser
	err := r.db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&dbUser)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("User not found by ID in repository", zap.String("userID", userID.Hex()))
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error fetching user by ID", zap.String("userID", userID.Hex()), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

// SaveVerifyOTP overwrites the verification OTP slot. A second issuance
// replaces the prior code; there is no multi-code queue.
func (r *UserRepository) SaveVerifyOTP(ctx context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error {
	return r.saveOTPSlot(ctx, userID, "verify_otp", "verify_otp_expire_at", code, expiresAt)
}

// SaveResetOTP overwrites the password-reset OTP slot.
func (r *UserRepository) SaveResetOTP(ctx context.Context, userID primitive.ObjectID, code string, expiresAt time.Time) error {
	return r.saveOTPSlot(ctx, userID, "reset_otp", "reset_otp_expire_at", code, expiresAt)
}

func (r *UserRepository) saveOTPSlot(ctx context.Context, userID primitive.ObjectID, codeField, expireField, code string, expiresAt time.Time) error {
	r.logger.Info("Saving OTP slot", zap.String("userID", userID.Hex()), zap.String("slot", codeField))
	update := bson.M{
		"$set": bson.M{
			codeField:    code,
			expireField:  expiresAt,
			"updated_at": time.Now(),
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.Error("DB error saving OTP slot", zap.String("userID", userID.Hex()), zap.String("slot", codeField), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("User not found for OTP save", zap.String("userID", userID.Hex()))
		return ErrUserNotFound
	}
	return nil
}

// ConsumeVerifyOTP clears the verification slot iff the stored code equals
// the submitted one. The filter makes a replayed or concurrent consume lose
// atomically; expiry is checked by the caller before consuming.
func (r *UserRepository) ConsumeVerifyOTP(ctx context.Context, userID primitive.ObjectID, code string) error {
	return r.consumeOTPSlot(ctx, userID, "verify_otp", "verify_otp_expire_at", code)
}

// ConsumeResetOTP clears the reset slot iff the stored code equals the
// submitted one.
func (r *UserRepository) ConsumeResetOTP(ctx context.Context, userID primitive.ObjectID, code string) error {
	return r.consumeOTPSlot(ctx, userID, "reset_otp", "reset_otp_expire_at", code)
}

func (r *UserRepository) consumeOTPSlot(ctx context.Context, userID primitive.ObjectID, codeField, expireField, code string) error {
	if code == "" {
		return ErrOTPMismatch
	}
	filter := bson.M{"_id": userID, codeField: code}
	update := bson.M{
		"$set": bson.M{
			codeField:    "",
			expireField:  time.Time{},
			"updated_at": time.Now(),
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("DB error consuming OTP slot", zap.String("userID", userID.Hex()), zap.String("slot", codeField), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("OTP consume matched no document", zap.String("userID", userID.Hex()), zap.String("slot", codeField))
		return ErrOTPMismatch
	}
	r.logger.Info("OTP slot consumed", zap.String("userID", userID.Hex()), zap.String("slot", codeField))
	return nil
}

// MarkAccountVerified flips the verification flag. It is never reset.
func (r *UserRepository) MarkAccountVerified(ctx context.Context, userID primitive.ObjectID) error {
	r.logger.Info("Marking account as verified", zap.String("userID", userID.Hex()))
	update := bson.M{
		"$set": bson.M{
			"is_account_verified": true,
			"updated_at":          time.Now(),
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.Error("DB error marking account as verified", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("User not found for account verification", zap.String("userID", userID.Hex()))
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID primitive.ObjectID, newPassword string) error {
	r.logger.Info("Updating password", zap.String("userID", userID.Hex()))
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		r.logger.Error("Failed to hash new password", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"password":   string(hashedPassword),
			"updated_at": time.Now(),
		},
	}
	result, err := r.db.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		r.logger.Error("DB error updating password", zap.String("userID", userID.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("User not found for password update", zap.String("userID", userID.Hex()))
		return ErrUserNotFound
	}
	r.logger.Info("Password updated successfully", zap.String("userID", userID.Hex()))
	return nil
}
