package handler

import (
	"errors"
	"net/http"

	"github.com/go-auth-redis/internal/application/auth"
	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// AuthHandler serves registration, login and session endpoints.
type AuthHandler struct {
	svc     auth.Service
	cookies *Cookies
}

func NewAuthHandler(svc auth.Service, cookies *Cookies) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.Register(r.Context(), middleware.ClientIP(r), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "If your email is valid, a verification has been sent. It will expire in 5 minutes")
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, VerifyEmailEnvelope{
		Message: "Email verified successfully! your account has been created ",
		User:    u,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.Login(r.Context(), middleware.ClientIP(r), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Otp has sent to your email, it will be valid for 5 min")
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	res, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	tok := res.Tokens
	h.cookies.SetAccess(w, tok.AccessToken, tok.AccessExpiresAt)
	h.cookies.SetRefresh(w, tok.RefreshToken, tok.RefreshExpires)
	h.cookies.SetCSRF(w, tok.CSRFToken)
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Message: "Welcome " + res.User.Name,
		User:    res.User,
		SessionInfo: &domain.SessionInfo{
			SessionID: tok.SessionID,
			LoginTime: tok.LoginTime,
			CSRFToken: tok.CSRFToken,
		},
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.EmailRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.ResendOTP(r.Context(), middleware.ClientIP(r), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "A new OTP has been sent to your email. It will expire in 5 minutes.")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Please Login - no token")
		return
	}
	p, err := h.svc.Me(r.Context(), claims.UserID, claims.SessionID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{User: p.User, SessionInfo: p.SessionInfo})
}

// Refresh clears every auth cookie when the refresh token is rejected, so the client
// falls back to a full login.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshFromRequest(r)
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	res, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.cookies.Clear(w)
		}
		httpError(w, r, err)
		return
	}
	h.cookies.SetAccess(w, res.AccessToken, res.AccessExpiresAt)
	h.cookies.SetCSRF(w, res.CSRFToken)
	writeMessage(w, http.StatusOK, "token refreshed")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Please Login - no token")
		return
	}
	if err := h.svc.Logout(r.Context(), claims.UserID, claims.SessionID); err != nil {
		httpError(w, r, err)
		return
	}
	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) RefreshCSRF(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Please Login - no token")
		return
	}
	tok, err := h.svc.RefreshCSRF(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.cookies.SetCSRF(w, tok)
	writeJSON(w, http.StatusOK, CSRFTokenEnvelope{Message: "CSRF token refreshed", CSRFToken: tok})
}

func (h *AuthHandler) Admin(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "Hello Admin")
}
