package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pamazon/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token has expired")
)

// RefreshTokenRepository keeps the sessions opened at sign-in.
// A session stays usable until it is revoked or the database clock passes
// its expiry.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindActive(ctx context.Context, token string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, userID uuid.UUID, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type refreshTokenRepository struct {
	db *sql.DB
}

// NewRefreshTokenRepository creates a new instance of RefreshTokenRepository
func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create opens a session. created_at is stamped by the database and copied
// back onto token.
func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at, revoked
	`

	err := r.db.QueryRowContext(ctx, query, token.ID, token.UserID, token.Token, token.ExpiresAt).
		Scan(&token.CreatedAt, &token.Revoked)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	return nil
}

// FindActive returns the session behind token. Revoked sessions yield
// ErrRefreshTokenRevoked and lapsed ones ErrRefreshTokenExpired.
func (r *refreshTokenRepository) FindActive(ctx context.Context, token string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at, revoked, expires_at <= NOW() AS lapsed
		FROM refresh_tokens
		WHERE token = $1
	`

	var (
		session domain.RefreshToken
		lapsed  bool
	)
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.Revoked,
		&lapsed,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrRefreshTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to look up session: %w", err)
	case session.Revoked:
		return nil, ErrRefreshTokenRevoked
	case lapsed:
		return nil, ErrRefreshTokenExpired
	}

	return &session, nil
}

// Revoke closes one of userID's open sessions. A token that belongs to
// someone else, or is already closed, yields ErrRefreshTokenNotFound.
func (r *refreshTokenRepository) Revoke(ctx context.Context, userID uuid.UUID, token string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE token = $1 AND user_id = $2 AND NOT revoked
	`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	closed, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if closed == 0 {
		return ErrRefreshTokenNotFound
	}

	return nil
}

// RevokeAllForUser closes every open session of userID and reports how many
// were closed.
func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	closed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return closed, nil
}
