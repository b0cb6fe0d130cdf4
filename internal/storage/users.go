package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// CreateUser registers a new account. Emails are unique, ignoring case.
func (s *SQLiteStorage) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	if err := validateString(passwordHash, "passwordHash"); err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%w: user %s", ErrDuplicateEntry, user.Email)
		}
		return nil, fmt.Errorf("failed to add user: %w", err)
	}

	return user, nil
}

// GetUserByEmail looks an account up by email.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "email = ?", strings.TrimSpace(email))
}

// GetUserByID looks an account up by id.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*User, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLiteStorage) getUser(ctx context.Context, where string, arg any) (*User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
