package http

import (
	"github.com/auth-api-nosql/internal/application/auth"
	jwtinfra "github.com/auth-api-nosql/internal/infrastructure/jwt"
)

// Deps holds the collaborators the router wires into the engine. Stores are
// the engine's own interfaces so either the DynamoDB repos or the in-memory
// reference store can back them.
type Deps struct {
	AccountRepo      auth.AccountStore
	VerificationRepo auth.VerificationStore
	Mailer           auth.Mailer
	SMSSender        auth.SMSSender
	Codes            auth.CodeGenerator
	JWTProvider      *jwtinfra.Provider
}
