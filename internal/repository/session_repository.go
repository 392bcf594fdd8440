package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/api/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

var _ SessionStore = (*SessionRepository)(nil)

func (r *SessionRepository) UpsertForUser(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO user_sessions (
			user_id, session_token, expires_at, created_at
		) VALUES (
			$1, $2, $3, $4
		)
		ON CONFLICT (user_id)
		DO UPDATE SET
			session_token = EXCLUDED.session_token,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query,
		session.UserID,
		session.SessionToken,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (models.Session, error) {
	const query = `
		SELECT user_id, session_token, expires_at, created_at
		FROM user_sessions
		WHERE session_token = $1
	`

	row := r.pool.QueryRow(ctx, query, token)
	var session models.Session
	if err := row.Scan(
		&session.UserID,
		&session.SessionToken,
		&session.ExpiresAt,
		&session.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	const query = `DELETE FROM user_sessions WHERE session_token = $1`
	cmd, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
