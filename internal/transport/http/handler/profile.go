package handler

import (
	"errors"
	"net/http"

	"github.com/go-auth-redis/internal/application/auth"
	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/transport/http/middleware"
)

const avatarField = "avatar"

// ProfileHandler accepts avatar uploads as multipart form data.
type ProfileHandler struct {
	svc      auth.Service
	maxBytes int64
}

func NewProfileHandler(svc auth.Service, maxBytes int64) *ProfileHandler {
	return &ProfileHandler{svc: svc, maxBytes: maxBytes}
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Please Login - no token")
		return
	}

	// headroom for the multipart envelope around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, r, domain.NewError(domain.ErrBadRequest, "Image is too large"))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			httpError(w, r, domain.NewError(domain.ErrBadRequest, "Invalid form data"))
			return
		}
	}

	var in auth.AvatarUpload
	file, header, err := r.FormFile(avatarField)
	switch {
	case err == nil:
		defer file.Close()
		in = auth.AvatarUpload{Reader: file, Filename: header.Filename, Size: header.Size}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		httpError(w, r, domain.NewError(domain.ErrBadRequest, "Invalid form data"))
		return
	}

	av, err := h.svc.UploadAvatar(r.Context(), claims.UserID, in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AvatarEnvelope{Message: "Profile picture updated successfully", Avatar: av})
}
