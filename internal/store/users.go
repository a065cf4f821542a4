package store

import (
	"database/sql"
	"errors"

	"github.com/vitrine-io/vitrine/internal/models"
)

// CreateUser creates a new user with a pre-hashed password. New accounts
// always start unverified.
func (s *Store) CreateUser(name, email, passwordHash string) (*models.User, error) {
	now := s.now()
	user := &models.User{
		ID:        newID(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.q.Exec(
		s.rebind("INSERT INTO users (id, name, email, password, email_verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		user.ID, user.Name, user.Email, user.Password, false, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	return s.scanUser(s.q.QueryRow(
		s.rebind("SELECT id, name, email, password, email_verified, created_at, updated_at FROM users WHERE email = ?"),
		email,
	))
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(id string) (*models.User, error) {
	return s.scanUser(s.q.QueryRow(
		s.rebind("SELECT id, name, email, password, email_verified, created_at, updated_at FROM users WHERE id = ?"),
		id,
	))
}

// MarkUserVerified flips the verified flag for the account with the given
// email. Returns ErrNotFound when no such account exists.
func (s *Store) MarkUserVerified(email string) error {
	result, err := s.q.Exec(
		s.rebind("UPDATE users SET email_verified = ?, updated_at = ? WHERE email = ?"),
		true, s.now(), email,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
