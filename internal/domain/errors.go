package domain

import "errors"

var (
	ErrValidation   = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrAuth         = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")

	// Payment rejections. Both wrap into user-facing messages without
	// mutating booking state.
	ErrCardDeclined = errors.New("card declined")
	ErrCardExpired  = errors.New("card expired")
)
