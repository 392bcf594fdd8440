package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/api/internal/models"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ UserStore = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			user_id, email, password_hash, name, role, picture, auth_provider, google_id, created_at, last_login
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.Picture,
		user.AuthProvider,
		user.GoogleID,
		user.CreatedAt,
		user.LastLogin,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

const userColumns = `user_id, email, name, role, picture, auth_provider, google_id, created_at, last_login`

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
}

func (r *UserRepository) FindCredentialsByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`, email)
	var user models.User
	if err := row.Scan(append(userFields(&user), &user.PasswordHash)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) UpdateByEmail(ctx context.Context, email string, update models.UserUpdate) error {
	return r.update(ctx, "email", email, update)
}

func (r *UserRepository) UpdateByID(ctx context.Context, id string, update models.UserUpdate) error {
	return r.update(ctx, "user_id", id, update)
}

func (r *UserRepository) update(ctx context.Context, keyColumn string, key string, update models.UserUpdate) error {
	if update.Empty() {
		return nil
	}

	sets, args := updateAssignments(update)
	args = append(args, key)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE %s = $%d`, strings.Join(sets, ", "), keyColumn, len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func updateAssignments(update models.UserUpdate) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Picture != nil {
		add("picture", *update.Picture)
	}
	if update.GoogleID != nil {
		add("google_id", *update.GoogleID)
	}
	if update.AuthProvider != nil {
		add("auth_provider", string(*update.AuthProvider))
	}
	if update.LastLogin != nil {
		add("last_login", *update.LastLogin)
	}
	return sets, args
}

func userFields(user *models.User) []any {
	return []any{
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.Picture,
		&user.AuthProvider,
		&user.GoogleID,
		&user.CreatedAt,
		&user.LastLogin,
	}
}

func (r *UserRepository) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(userFields(&user)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
