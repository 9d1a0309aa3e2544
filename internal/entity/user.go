package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the persisted account record. Each OTP slot holds at most one
// active code; an empty code with a zero expiry means no code is pending.
type User struct {
	ID                primitive.ObjectID
	Name              string
	Email             string
	Password          string // This will be the hashed password
	IsAccountVerified bool
	VerifyOTP         string
	VerifyOTPExpireAt time.Time
	ResetOTP          string
	ResetOTPExpireAt  time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
