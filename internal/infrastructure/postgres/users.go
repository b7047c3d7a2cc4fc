package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-redis/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// UserRepo stores users in Postgres. The pool is owned by the caller.
type UserRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool, now: time.Now}
}

const selectUser = `SELECT id, name, email, password_hash, role, avatar_url, avatar_storage_id, created_at, updated_at FROM users`

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	var url, storageID *string
	if u.Avatar != nil {
		url, storageID = &u.Avatar.URL, &u.Avatar.StorageID
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, avatar_url, avatar_storage_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.UserID, u.Name, u.Email, u.PasswordHash, u.Role, url, storageID, u.CreatedAt, u.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.queryOne(ctx, selectUser+` WHERE id = $1`, userID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, hash, r.now().UTC())
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, userID string, av *domain.Avatar) error {
	return r.exec(ctx, `UPDATE users SET avatar_url = $2, avatar_storage_id = $3, updated_at = $4 WHERE id = $1`,
		userID, av.URL, av.StorageID, r.now().UTC())
}

func (r *UserRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) queryOne(ctx context.Context, sql string, arg string) (*domain.User, error) {
	var (
		u              domain.User
		url, storageID *string
	)
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &url, &storageID, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	if url != nil && *url != "" {
		u.Avatar = &domain.Avatar{URL: *url}
		if storageID != nil {
			u.Avatar.StorageID = *storageID
		}
	}
	return &u, nil
}
