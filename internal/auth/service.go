package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vitrine-io/vitrine/internal/email"
	"github.com/vitrine-io/vitrine/internal/models"
	"github.com/vitrine-io/vitrine/internal/store"
)

// SignupMessage is returned on every successful signup. It never reveals
// whether the welcome mail was actually dispatched.
const SignupMessage = "User created successfully. Please check your email to verify your account."

const verificationTTL = 24 * time.Hour

// Service implements the authentication flow: signup, login, token
// issuance and rotation, logout, and email verification. All collaborators
// are constructor-injected.
type Service struct {
	store  *store.Store
	tokens *TokenManager
	mailer email.Mailer
	hook   email.DispatchHook
	now    func() time.Time
}

// NewService creates an auth service. mailer may be nil, which disables
// outbound mail without affecting any caller-visible outcome.
func NewService(st *store.Store, tokens *TokenManager, mailer email.Mailer) *Service {
	return &Service{
		store:  st,
		tokens: tokens,
		mailer: mailer,
		now:    time.Now,
	}
}

// SetClock overrides the service's time source for deterministic tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetDispatchHook registers an observer for mail dispatch outcomes.
func (s *Service) SetDispatchHook(hook email.DispatchHook) {
	s.hook = hook
}

// AuthResponse is the result of a successful login.
type AuthResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
	ExpiresIn    int               `json:"expires_in"`
	User         models.PublicUser `json:"user"`
}

// TokenPair is the result of a successful refresh rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Signup registers a new account, hashes the password, and issues a
// verification code delivered by mail. The account starts unverified.
func (s *Service) Signup(name, emailAddr, password string) (string, error) {
	_, err := s.store.GetUserByEmail(emailAddr)
	if err == nil {
		return "", ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("signup: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}

	user, err := s.store.CreateUser(name, emailAddr, hash)
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}

	code, err := s.issueVerification(user.Email)
	if err != nil {
		return "", err
	}

	s.dispatchWelcome(user.Email, user.Name, code)
	return SignupMessage, nil
}

// Login validates credentials and mints an access/refresh pair. Unknown
// email, unverified account, and wrong password are indistinguishable to
// the caller.
func (s *Service) Login(emailAddr, password string) (*AuthResponse, error) {
	user, err := s.store.GetUserByEmail(emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.EmailVerified {
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("login: sign access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: sign refresh token: %w", err)
	}

	// One live refresh token per user: replace any prior rows.
	if err := s.store.DeleteUserRefreshTokens(user.ID); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	if _, err := s.store.CreateRefreshToken(user.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
		User:         user.Public(),
	}, nil
}

// ValidateAccess verifies an access token's signature and expiry.
func (s *Service) ValidateAccess(token string) (*AccessClaims, error) {
	return s.tokens.ValidateAccessToken(token)
}

// Refresh rotates a refresh token: the presented token must verify and
// match a live row, which is overwritten with the replacement so the old
// token cannot be replayed.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	if _, err := s.tokens.ValidateRefreshToken(refreshToken); err != nil {
		return nil, err
	}

	row, err := s.store.GetLiveRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Already revoked or rotated.
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	user, err := s.store.GetUserByID(row.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	newAccess, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("refresh: sign access token: %w", err)
	}
	newRefresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh: sign refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	if err := s.store.RotateRefreshToken(row.ID, newRefresh, expiresAt); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return &TokenPair{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes a refresh token. Revoking an unknown token is a no-op.
func (s *Service) Logout(refreshToken string) error {
	return s.store.DeleteRefreshToken(refreshToken)
}

// LogoutAll revokes every refresh token for a user.
func (s *Service) LogoutAll(userID string) error {
	return s.store.DeleteUserRefreshTokens(userID)
}

// CleanupExpiredTokens removes refresh token rows whose expiry has passed.
// Runs from housekeeping, never on the request path.
func (s *Service) CleanupExpiredTokens() (int64, error) {
	return s.store.DeleteExpiredRefreshTokens()
}

// VerifyEmail consumes a verification code and flips the account's
// verified flag. Both writes happen in one transaction so a concurrent
// attempt with the same code cannot half-apply.
func (s *Service) VerifyEmail(code string) error {
	return s.store.WithTx(func(tx *store.Store) error {
		v, err := tx.GetVerification(code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidVerification
			}
			return fmt.Errorf("verify email: %w", err)
		}

		if v.Value != models.VerificationValue {
			return ErrInvalidVerification
		}
		if v.Expired(s.now()) {
			return fmt.Errorf("%w: code expired", ErrInvalidVerification)
		}

		if err := tx.MarkUserVerified(v.Identifier); err != nil {
			return fmt.Errorf("verify email: %w", err)
		}
		if err := tx.DeleteVerification(code); err != nil {
			return fmt.Errorf("verify email: %w", err)
		}
		return nil
	})
}

// ResendVerification replaces any outstanding verification entry for the
// email with a fresh one and redelivers the mail.
func (s *Service) ResendVerification(emailAddr string) error {
	user, err := s.store.GetUserByEmail(emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("resend verification: %w", err)
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := s.issueVerification(user.Email)
	if err != nil {
		return err
	}

	s.dispatchWelcome(user.Email, user.Name, code)
	return nil
}

// issueVerification supersedes outstanding entries for the email and
// creates a new single-use code valid for 24h.
func (s *Service) issueVerification(emailAddr string) (string, error) {
	if err := s.store.DeleteVerificationsFor(emailAddr); err != nil {
		return "", fmt.Errorf("issue verification: %w", err)
	}

	code := uuid.NewString()
	expiresAt := s.now().Add(verificationTTL)
	if _, err := s.store.CreateVerification(code, emailAddr, expiresAt); err != nil {
		return "", fmt.Errorf("issue verification: %w", err)
	}
	return code, nil
}

// dispatchWelcome sends the welcome mail best-effort. The outcome reaches
// the dispatch hook and the log, never the caller.
func (s *Service) dispatchWelcome(to, name, code string) {
	if s.mailer == nil {
		return
	}

	err := s.mailer.SendWelcomeEmail(to, name, code)
	if err != nil {
		log.Printf("Failed to send welcome email to %s: %v", to, err)
	}
	if s.hook != nil {
		s.hook(to, err)
	}
}
