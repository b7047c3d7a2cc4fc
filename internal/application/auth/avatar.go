package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-auth-redis/internal/application/avatar"
	"github.com/go-auth-redis/internal/domain"
)

// UploadAvatar stores the new image before touching the old one, so a failed upload
// leaves the current avatar in place.
func (s *service) UploadAvatar(ctx context.Context, userID string, in AvatarUpload) (*domain.Avatar, error) {
	if in.Reader == nil {
		return nil, domain.NewError(domain.ErrBadRequest, "Please upload an image")
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	av, err := s.avatars.Upload(ctx, avatar.UploadInput{
		Reader:   in.Reader,
		Filename: in.Filename,
		Size:     in.Size,
		UserID:   userID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateAvatar(ctx, userID, av); err != nil {
		if delErr := s.avatars.Delete(ctx, av.StorageID); delErr != nil {
			slog.WarnContext(ctx, "remove orphaned avatar", "user_id", userID, "err", delErr)
		}
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	if u.Avatar != nil && u.Avatar.StorageID != "" && u.Avatar.StorageID != av.StorageID {
		if err := s.avatars.Delete(ctx, u.Avatar.StorageID); err != nil {
			slog.WarnContext(ctx, "delete previous avatar", "user_id", userID, "err", err)
		}
	}
	s.dropProfile(ctx, userID)
	s.metrics.AuthEvent("upload_avatar", "ok")
	return av, nil
}
