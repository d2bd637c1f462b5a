package handler

import (
	"encoding/json"
	"net/http"

	"github.com/auth-api-nosql/internal/application/auth"
	"github.com/auth-api-nosql/internal/domain"
	"github.com/auth-api-nosql/internal/pkg/validate"
)

// SessionHandler handles the login endpoint.
type SessionHandler struct {
	svc auth.Service
}

func NewSessionHandler(svc auth.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Message: "login successful",
		Token:   result.Token,
		Account: toView(result.Account),
	})
}
