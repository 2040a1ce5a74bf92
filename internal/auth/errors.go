package auth

import "errors"

var (
	ErrMissingFields = errors.New("auth: missing required fields")
	ErrInvalidInput  = errors.New("auth: invalid input")
	ErrWeakPassword  = errors.New("auth: password does not meet policy")

	ErrDuplicateAccount = errors.New("auth: account already exists")

	// ErrInvalidCredentials cubre email desconocido, password incorrecta y digest corrupto.
	// El caller no puede (ni debe) distinguirlos.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrPersistence = errors.New("auth: persistence failure")
	ErrTokenIssue  = errors.New("auth: token issue failed")
)
