package http

import (
	"context"
	"io"

	"github.com/go-auth-redis/internal/domain"
	jwtinfra "github.com/go-auth-redis/internal/infrastructure/jwt"
	redisinfra "github.com/go-auth-redis/internal/infrastructure/redis"
	"github.com/go-auth-redis/internal/metrics"
	"github.com/go-auth-redis/internal/pkg/password"
)

// UserRepository is the durable user store; DynamoDB and Postgres both satisfy it.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID string, av *domain.Avatar) error
}

// ObjectStore holds avatar images.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Mailer interface {
	SendEmail(to, subject, body string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.SecurityEvent) error
}

// Deps holds the infrastructure the router wires into services. Events, Metrics and
// Hasher are optional.
type Deps struct {
	Users   UserRepository
	Store   *redisinfra.Store
	Tokens  *jwtinfra.Provider
	Objects ObjectStore
	Mailer  Mailer
	Events  EventPublisher
	Metrics *metrics.Metrics
	Hasher  *password.Hasher
}
