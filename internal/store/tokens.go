package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/vitrine-io/vitrine/internal/models"
)

// CreateRefreshToken inserts a refresh token row for the user.
func (s *Store) CreateRefreshToken(userID, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	t := &models.RefreshToken{
		ID:        newID(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		UpdatedAt: s.now(),
	}

	_, err := s.q.Exec(
		s.rebind("INSERT INTO refresh_tokens (id, user_id, token, expires_at, updated_at) VALUES (?, ?, ?, ?, ?)"),
		t.ID, t.UserID, t.Token, t.ExpiresAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// GetLiveRefreshToken retrieves a non-expired refresh token row by its
// token string. Expired or absent rows both come back as ErrNotFound.
func (s *Store) GetLiveRefreshToken(token string) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	err := s.q.QueryRow(
		s.rebind("SELECT id, user_id, token, expires_at, updated_at FROM refresh_tokens WHERE token = ? AND expires_at > ?"),
		token, s.now(),
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// RotateRefreshToken overwrites the row in place with the replacement
// token string and expiry. The presented token stops validating the
// moment the row is rewritten.
func (s *Store) RotateRefreshToken(id, newToken string, expiresAt time.Time) error {
	result, err := s.q.Exec(
		s.rebind("UPDATE refresh_tokens SET token = ?, expires_at = ?, updated_at = ? WHERE id = ?"),
		newToken, expiresAt, s.now(), id,
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

// DeleteRefreshToken removes a refresh token row by its token string.
// Deleting an absent token is not an error.
func (s *Store) DeleteRefreshToken(token string) error {
	_, err := s.q.Exec(s.rebind("DELETE FROM refresh_tokens WHERE token = ?"), token)
	return err
}

// DeleteUserRefreshTokens removes all refresh token rows for a user.
func (s *Store) DeleteUserRefreshTokens(userID string) error {
	_, err := s.q.Exec(s.rebind("DELETE FROM refresh_tokens WHERE user_id = ?"), userID)
	return err
}

// DeleteExpiredRefreshTokens removes all rows whose expiry has passed.
func (s *Store) DeleteExpiredRefreshTokens() (int64, error) {
	result, err := s.q.Exec(s.rebind("DELETE FROM refresh_tokens WHERE expires_at < ?"), s.now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
