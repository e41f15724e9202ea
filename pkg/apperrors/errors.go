package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptyMessage  = errors.New("message is required")
	ErrInvalidRole   = errors.New("invalid role")
)
