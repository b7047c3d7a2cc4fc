package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-auth-redis/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ValidationEnvelope lists every failed field; Message repeats the first one.
type ValidationEnvelope struct {
	Message string              `json:"message"`
	Error   []domain.FieldIssue `json:"error"`
}

// CSRFEnvelope carries the CSRF_* code clients use to refresh and retry.
type CSRFEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type VerifyEmailEnvelope struct {
	Message string             `json:"message"`
	User    *domain.PublicUser `json:"user"`
}

type LoginEnvelope struct {
	Message     string              `json:"message"`
	User        *domain.User        `json:"user"`
	SessionInfo *domain.SessionInfo `json:"sessionInfo"`
}

type ProfileEnvelope struct {
	User        *domain.User        `json:"user"`
	SessionInfo *domain.SessionInfo `json:"sessionInfo"`
}

type CSRFTokenEnvelope struct {
	Message   string `json:"message"`
	CSRFToken string `json:"csrfToken"`
}

type AvatarEnvelope struct {
	Message string         `json:"message"`
	Avatar  *domain.Avatar `json:"avatar"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// decode reads a JSON body into v. An empty body leaves v zeroed so the service
// reports the missing fields itself.
func decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return domain.NewError(domain.ErrBadRequest, "Invalid request body")
	}
	return nil
}
