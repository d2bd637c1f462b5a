package handler

import (
	"encoding/json"
	"net/http"

	"github.com/auth-api-nosql/internal/application/auth"
	"github.com/auth-api-nosql/internal/domain"
	"github.com/auth-api-nosql/internal/pkg/validate"
	"github.com/auth-api-nosql/internal/transport/http/middleware"
)

// AccountHandler handles signup and profile endpoints.
type AccountHandler struct {
	svc auth.Service
}

func NewAccountHandler(svc auth.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.Signup(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{
		Message: "account registered, check your email for the verification code",
	})
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpError(w, domain.ErrUnauthenticated)
		return
	}
	a, err := h.svc.GetProfile(r.Context(), claims.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(a))
}
