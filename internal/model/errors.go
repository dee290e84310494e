package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account deactivated")

	// Token related errors. Malformed and expired are distinct so callers can
	// log and report them separately; both surface as 401 externally.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Patient related errors
	ErrPatientNotFound  = errors.New("patient not found")
	ErrPatientCodeTaken = errors.New("patient code already taken")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
