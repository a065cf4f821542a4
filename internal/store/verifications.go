package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/vitrine-io/vitrine/internal/models"
)

// CreateVerification inserts a verification entry. The code itself is the
// primary key.
func (s *Store) CreateVerification(code, email string, expiresAt time.Time) (*models.Verification, error) {
	now := s.now()
	v := &models.Verification{
		ID:         code,
		Identifier: email,
		Value:      models.VerificationValue,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.q.Exec(
		s.rebind("INSERT INTO verifications (id, identifier, value, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"),
		v.ID, v.Identifier, v.Value, v.ExpiresAt, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// GetVerification retrieves a verification entry by code.
func (s *Store) GetVerification(code string) (*models.Verification, error) {
	v := &models.Verification{}
	err := s.q.QueryRow(
		s.rebind("SELECT id, identifier, value, expires_at, created_at, updated_at FROM verifications WHERE id = ?"),
		code,
	).Scan(&v.ID, &v.Identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVerification removes a verification entry by code. Returns
// ErrNotFound when the code was already consumed.
func (s *Store) DeleteVerification(code string) error {
	result, err := s.q.Exec(s.rebind("DELETE FROM verifications WHERE id = ?"), code)
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

// DeleteVerificationsFor removes all outstanding verification entries for
// an email address. Resend and signup call this before issuing a new code
// so that at most one entry is live per address.
func (s *Store) DeleteVerificationsFor(email string) error {
	_, err := s.q.Exec(
		s.rebind("DELETE FROM verifications WHERE identifier = ? AND value = ?"),
		email, models.VerificationValue,
	)
	return err
}

// VerificationsFor lists verification entries for an email address.
func (s *Store) VerificationsFor(email string) ([]*models.Verification, error) {
	rows, err := s.q.Query(
		s.rebind("SELECT id, identifier, value, expires_at, created_at, updated_at FROM verifications WHERE identifier = ? AND value = ?"),
		email, models.VerificationValue,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Verification
	for rows.Next() {
		v := &models.Verification{}
		if err := rows.Scan(&v.ID, &v.Identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, v)
	}
	return entries, rows.Err()
}
