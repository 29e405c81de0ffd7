package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrNotFound          = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

func (m *DBModel) insertUser(ctx context.Context, u *User, tokenHash []byte, tokenExpiry time.Time) error {
	query := `
		INSERT INTO users (username, email, password, role, verification_token_hash, verification_token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Password.hash,
		u.Role,
		tokenHash,
		tokenExpiry,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case err.Error() == "pq: duplicate key value violates unique constraint \"users_username_key\"":
			return ErrDuplicateUsername
		case err.Error() == "pq: duplicate key value violates unique constraint \"users_email_key\"":
			return ErrDuplicateEmail
		default:
			return err
		}
	}
	return nil
}

func (m *DBModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, email, password, role, verified, created_at, updated_at, version
		FROM users
		WHERE username = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.Verified, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, username, email, role, verified, created_at, updated_at, version
		FROM users
		WHERE id = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Verified, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, username, email, role, verified, created_at, updated_at, version
		FROM users
		WHERE email = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Verified, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

// verifyUser flips the verified flag for the account holding the token.
// The token columns are cleared in the same statement so the token is
// single-use; an unknown or expired token updates no rows.
func (m *DBModel) verifyUser(ctx context.Context, tokenHash []byte) error {
	query := `
		UPDATE users
		SET verified = true, verification_token_hash = NULL, verification_token_expiry = NULL,
		    updated_at = now(), version = version + 1
		WHERE verification_token_hash = $1 AND verification_token_expiry > now()
		RETURNING id`

	var id int
	err := m.db.QueryRowContext(ctx, query, tokenHash).Scan(&id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) setResetToken(ctx context.Context, userID int, tokenHash []byte, expiry time.Time) error {
	query := `
		UPDATE users
		SET reset_token_hash = $1, reset_token_expiry = $2, updated_at = now(), version = version + 1
		WHERE id = $3`

	_, err := m.db.ExecContext(ctx, query, tokenHash, expiry, userID)
	return err
}

func (m *DBModel) resetPassword(ctx context.Context, tokenHash []byte, pwd Password) error {
	query := `
		UPDATE users
		SET password = $1, reset_token_hash = NULL, reset_token_expiry = NULL,
		    updated_at = now(), version = version + 1
		WHERE reset_token_hash = $2 AND reset_token_expiry > now()
		RETURNING id`

	var id int
	err := m.db.QueryRowContext(ctx, query, pwd.hash, tokenHash).Scan(&id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNotFound
		default:
			return err
		}
	}

	return nil
}
