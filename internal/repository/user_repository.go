package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cartly/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, verified, verification_code, verification_code_expires_at, roles, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, name, password_hash, verified, verification_code, verification_code_expires_at, roles, created_at, updated_at
		) VALUES (
			$1, lower($2), $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Verified,
		user.VerificationCode,
		user.VerificationCodeExpiresAt,
		rolesToStrings(user.Roles),
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateRegistration overwrites the pending account's name, password
// and verification code in one statement (the re-registration path).
func (r *UserRepository) UpdateRegistration(ctx context.Context, id string, name string, passwordHash string, code string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET name = $2,
		    password_hash = $3,
		    verification_code = $4,
		    verification_code_expires_at = $5,
		    updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, name, passwordHash, code, expiresAt)
}

func (r *UserRepository) SetVerificationCode(ctx context.Context, id string, code string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET verification_code = $2,
		    verification_code_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, code, expiresAt)
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET verified = TRUE,
		    verification_code = NULL,
		    verification_code_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2,
		    verification_code = NULL,
		    verification_code_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var roles []string
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Verified,
		&user.VerificationCode,
		&user.VerificationCodeExpiresAt,
		&roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	user.Roles = stringsToRoles(roles)
	return user, nil
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}

func stringsToRoles(roles []string) []models.Role {
	out := make([]models.Role, len(roles))
	for i, role := range roles {
		out[i] = models.Role(role)
	}
	return out
}
