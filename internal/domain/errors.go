package domain

import "errors"

// Sentinel errors for domain-level error discrimination. Services return
// these so handlers can map to HTTP status codes without leaking
// infrastructure details.
//
// The unified sentinels are deliberate: ErrInvalidOrExpiredCode covers
// missing account, wrong code and expired code; ErrInvalidCredentials covers
// missing account and wrong secret; ErrNotFoundOrVerified covers missing
// account and already-verified account. Callers cannot tell the causes apart
// because every cause maps to the same value. Two asymmetries are intentional
// and must stay: signup reports ErrConflict for a duplicate email, and login
// reports ErrNotVerified for an existing-but-unverified account.
var (
	ErrConflict             = errors.New("account already exists")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotVerified          = errors.New("account not verified")
	ErrNotFoundOrVerified   = errors.New("account not found or already verified")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrNotFound             = errors.New("not found")
	ErrBadRequest           = errors.New("bad request")
	ErrDependency           = errors.New("dependency failure")
)
