package domain

import (
	"strings"
	"time"
)

// Account is one registered identity. Verified starts false and becomes true
// exactly once; there is no un-verify operation.
type Account struct {
	AccountID    string    `json:"id" dynamodbav:"account_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        *string   `json:"phone,omitempty" dynamodbav:"phone"`
	SecretDigest string    `json:"-" dynamodbav:"secret_digest"`
	Verified     bool      `json:"verified" dynamodbav:"verified"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// SignupRequest is the inbound payload for account creation.
type SignupRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
}

// VerifyRequest carries the email plus the one-time code being consumed.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// LoginRequest is the credential-check payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResendRequest asks for a fresh code on an unverified account.
type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NormalizeEmail lowercases and trims an email address. All lookups and the
// uniqueness constraint operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
