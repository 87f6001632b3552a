package model

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email is already taken")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenInvalid        = errors.New("token is invalid")
	ErrTokenRevoked        = errors.New("token has been revoked")
	ErrTokenNotRevoked     = errors.New("token is not on the revocation list")
	ErrTokenAlreadyRevoked = errors.New("token is already revoked")
)
