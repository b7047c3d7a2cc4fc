package handler

import (
	"net/http"

	"github.com/go-auth-redis/internal/application/auth"
	"github.com/go-auth-redis/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

type PasswordHandler struct {
	svc     auth.Service
	cookies *Cookies
}

func NewPasswordHandler(svc auth.Service, cookies *Cookies) *PasswordHandler {
	return &PasswordHandler{svc: svc, cookies: cookies}
}

func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Please Login - no token")
		return
	}
	var req auth.ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.UserID, refreshFromRequest(r), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}

// Forgot answers identically for known and unknown addresses.
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req auth.EmailRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "If email exists, reset link sent")
}

func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), req); err != nil {
		httpError(w, r, err)
		return
	}
	h.cookies.Clear(w, accessCookie, refreshCookie)
	writeMessage(w, http.StatusOK, "Password reset successfully. Please log in again.")
}
