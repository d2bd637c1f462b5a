package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/auth-api-nosql/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps verify/login responses: a bearer token plus the public
// account projection.
type AuthEnvelope struct {
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token,omitempty"`
	Account *AccountView `json:"account,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// AccountView is the public projection of an account. The secret digest and
// any pending code never appear here.
type AccountView struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Phone    *string   `json:"phone,omitempty"`
	Verified bool      `json:"verified"`
	Created  time.Time `json:"created"`
}

func toView(a *domain.Account) *AccountView {
	if a == nil {
		return nil
	}
	return &AccountView{
		ID:       a.AccountID,
		Email:    a.Email,
		Phone:    a.Phone,
		Verified: a.Verified,
		Created:  a.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to transport statuses. Dependency failures
// are logged with internal detail and reported as a uniform retryable error;
// their wrapped cause never reaches the caller.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, domain.ErrConflict.Error())
	case errors.Is(err, domain.ErrInvalidOrExpiredCode),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNotVerified),
		errors.Is(err, domain.ErrNotFoundOrVerified),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server error, please try again")
	}
}
