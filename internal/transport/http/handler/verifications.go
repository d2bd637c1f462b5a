package handler

import (
	"encoding/json"
	"net/http"

	"github.com/auth-api-nosql/internal/application/auth"
	"github.com/auth-api-nosql/internal/domain"
	"github.com/auth-api-nosql/internal/pkg/validate"
)

// VerificationHandler handles code consumption and resend endpoints.
type VerificationHandler struct {
	svc auth.Service
}

func NewVerificationHandler(svc auth.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Verify(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Message: "email verified successfully",
		Token:   result.Token,
		Account: toView(result.Account),
	})
}

func (h *VerificationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.ResendOTP(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code resent successfully"})
}
