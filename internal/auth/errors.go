package auth

import "errors"

// Sentinel errors returned by the auth service. The HTTP layer maps these
// onto status codes with errors.Is; everything else is an internal error.
var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidVerification = errors.New("invalid verification code")
	ErrAlreadyVerified     = errors.New("email already verified")
)
